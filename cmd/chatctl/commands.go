package main

import (
	"chat-live/domain"
	"chat-live/repositories"
	"context"
	"fmt"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/pflag"
)

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command")
	}
	switch args[0] {
	case "user":
		if len(args) < 2 || args[1] != "add" {
			return fmt.Errorf("usage: chatctl user add --email E --nickname N --password P")
		}
		return a.userAdd(ctx, args[2:])
	case "room":
		if len(args) < 2 {
			return fmt.Errorf("usage: chatctl room direct|group [flags]")
		}
		switch args[1] {
		case "direct":
			return a.roomDirect(ctx, args[2:])
		case "group":
			return a.roomGroup(ctx, args[2:])
		}
		return fmt.Errorf("unknown room command %q", args[1])
	case "token":
		return a.token(ctx, args[1:])
	case "inspect":
		return a.inspect(args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func (a *app) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *app) userAdd(ctx context.Context, args []string) error {
	fs := a.flags("user add")
	email := fs.String("email", "", "account email")
	nickname := fs.String("nickname", "", "display name")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireSecret(); err != nil {
		return err
	}
	session, err := a.auth.Register(ctx, *email, *nickname, *password)
	if err != nil {
		return err
	}
	a.success("user created")
	a.table([]string{"ID", "Nickname", "Email", "Token"}, [][]string{{
		strconv.FormatInt(int64(session.User.ID), 10),
		session.User.Nickname,
		*email,
		string(session.Token),
	}})
	return nil
}

func (a *app) roomDirect(ctx context.Context, args []string) error {
	fs := a.flags("room direct")
	from := fs.Int64("from", 0, "creator user id")
	to := fs.Int64("to", 0, "other user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	creator, err := a.repos.Users.GetUser(ctx, domain.UserID(*from))
	if err != nil {
		return fmt.Errorf("creator %d: %w", *from, err)
	}
	room, err := a.rooms.CreateDirect(ctx, creator, domain.UserID(*to))
	if err != nil {
		return err
	}
	a.success("direct room ready")
	a.printRoom(ctx, room)
	return nil
}

func (a *app) roomGroup(ctx context.Context, args []string) error {
	fs := a.flags("room group")
	from := fs.Int64("from", 0, "creator user id")
	title := fs.String("title", "", "room title")
	members := fs.Int64Slice("members", nil, "invited user ids, comma separated")
	if err := fs.Parse(args); err != nil {
		return err
	}
	creator, err := a.repos.Users.GetUser(ctx, domain.UserID(*from))
	if err != nil {
		return fmt.Errorf("creator %d: %w", *from, err)
	}
	invited := lo.Map(*members, func(id int64, _ int) domain.UserID { return domain.UserID(id) })
	room, err := a.rooms.CreateGroup(ctx, creator, *title, invited)
	if err != nil {
		return err
	}
	a.success("group room created")
	a.printRoom(ctx, room)
	return nil
}

func (a *app) token(ctx context.Context, args []string) error {
	fs := a.flags("token")
	userID := fs.Int64("user", 0, "user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireSecret(); err != nil {
		return err
	}
	user, err := a.repos.Users.GetUser(ctx, domain.UserID(*userID))
	if err != nil {
		return err
	}
	token, err := a.tokens.Generate(user.ID, user.Roles)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, token)
	return nil
}

func (a *app) inspect(args []string) error {
	fs := a.flags("inspect")
	prefix := fs.String("prefix", "", "key prefix to scan (user:, room:, member:, msg:, rcpt:)")
	limit := fs.Int("limit", 100, "maximum number of records, 0 for all")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if a.badger == nil {
		return fmt.Errorf("inspect is only available with the badger store")
	}
	records, err := a.badger.Scan(*prefix, *limit)
	if err != nil {
		return err
	}
	rows := lo.Map(records, func(r repositories.Record, _ int) []string {
		return []string{r.Key, a.kind(r.Kind), r.Detail}
	})
	a.table([]string{"Key", "Type", "Detail"}, rows)
	return nil
}

func (a *app) printRoom(ctx context.Context, room domain.Room) {
	members, err := a.repos.Memberships.ListMembers(ctx, room.ID)
	if err != nil {
		members = nil
	}
	ids := lo.Map(members, func(m domain.Membership, _ int) string {
		return strconv.FormatInt(int64(m.UserID), 10)
	})
	a.table([]string{"ID", "Type", "Title", "Members"}, [][]string{{
		strconv.FormatInt(int64(room.ID), 10),
		string(room.Type),
		room.Title,
		fmt.Sprint(ids),
	}})
}

func (a *app) requireSecret() error {
	if a.tokens == nil {
		return fmt.Errorf("CHAT_JWT_SECRET is required")
	}
	return nil
}
