package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/stefanpenner/analog/pkg/board"
)

var (
	ColorGray     = lipgloss.Color("#626262")
	ColorOffWhite = lipgloss.Color("#D0D0D0")
	ColorPurple   = lipgloss.Color("#7D56F4")
	ColorRed      = lipgloss.Color("#E05252")
)

// Header styles
var (
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorGray).
			Italic(true)

	DotsStyle = lipgloss.NewStyle().
			Foreground(ColorPurple)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	FullStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorRed)
)

// Task styles
var (
	TaskStyle = lipgloss.NewStyle().
			Foreground(ColorOffWhite)

	FinishedTaskStyle = lipgloss.NewStyle().
				Foreground(ColorGray).
				Strikethrough(true)

	MetaStyle = lipgloss.NewStyle().
			Foreground(ColorGray)
)

const (
	IconDotOn  = "●"
	IconDotOff = "○"
	IconNote   = "↳"
	IconAssign = "→"
)

func titleStyle(k board.ListKind) lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(k.Accent()))
}

func signalStyle(s board.Signal) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.Color()))
}

func taskTextStyle(s board.Signal) lipgloss.Style {
	if s == board.SignalDone || s == board.SignalCanceled {
		return FinishedTaskStyle
	}
	return TaskStyle
}
