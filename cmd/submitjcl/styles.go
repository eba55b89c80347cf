package main

import "github.com/charmbracelet/lipgloss"

// ANSI 256 palette.
const (
	blue  = lipgloss.Color("33")
	gray  = lipgloss.Color("245")
	red   = lipgloss.Color("160")
	green = lipgloss.Color("40")
	amber = lipgloss.Color("214")
	white = lipgloss.Color("255")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(blue).MarginBottom(1)
	infoStyle  = lipgloss.NewStyle().Foreground(gray)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(red)
	checkStyle = lipgloss.NewStyle().Foreground(green)

	// contract matrix
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(white).Background(blue).Padding(0, 1)
	catStyle     = lipgloss.NewStyle().Bold(true).Foreground(blue).MarginTop(1)
	rowStyle     = lipgloss.NewStyle().Padding(0, 1)
	passedStyle  = lipgloss.NewStyle().Foreground(green)
	failedStyle  = lipgloss.NewStyle().Foreground(red)
	skippedStyle = lipgloss.NewStyle().Foreground(amber)
)
