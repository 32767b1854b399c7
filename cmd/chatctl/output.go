package main

import (
	"fmt"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

var kindColours = map[string]color.Color{
	"USER":    color.FgCyan,
	"ROOM":    color.FgGreen,
	"MEMBER":  color.FgBlue,
	"MESSAGE": color.FgYellow,
	"RECEIPT": color.FgMagenta,
	"INDEX":   color.FgGray,
}

func (a *app) table(header []string, rows [][]string) {
	table := tablewriter.NewWriter(a.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.AppendBulk(rows)
	table.Render()
}

func (a *app) success(msg string) {
	if a.colours {
		msg = color.New(color.FgGreen, color.OpBold).Render(msg)
	}
	fmt.Fprintln(a.out, msg)
}

func (a *app) kind(kind string) string {
	c, ok := kindColours[kind]
	if !a.colours || !ok {
		return kind
	}
	return c.Render(kind)
}

func failure(colours bool, msg string) string {
	if colours {
		return color.New(color.FgRed, color.OpBold).Render("error: " + msg)
	}
	return "error: " + msg
}
