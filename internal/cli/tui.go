package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/stackrecipe/pkg/errors"
	"github.com/matzehuels/stackrecipe/pkg/recipe"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// RecipeListModel - Interactive recipe selection
// =============================================================================

// RecipeListModel is the bubbletea model for picking one recipe of a
// descriptor that declares several. Typing narrows the list by name.
type RecipeListModel struct {
	Recipes  []*recipe.Recipe
	Filter   textinput.Model
	Cursor   int
	Selected *recipe.Recipe
	Height   int
	Offset   int

	visible []*recipe.Recipe
}

// NewRecipeListModel creates a new recipe list model.
func NewRecipeListModel(recipes []*recipe.Recipe) RecipeListModel {
	ti := textinput.New()
	ti.Placeholder = "filter recipes"
	ti.Prompt = "/ "
	ti.CharLimit = 64
	ti.Focus()
	return RecipeListModel{Recipes: recipes, Filter: ti, Height: 15, visible: recipes}
}

func (m RecipeListModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m RecipeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
			return m, nil
		case tea.KeyDown:
			if m.Cursor < len(m.visible)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
			return m, nil
		case tea.KeyEnter:
			if len(m.visible) == 0 {
				return m, nil
			}
			m.Selected = m.visible[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		return m, nil
	}

	var cmd tea.Cmd
	before := m.Filter.Value()
	m.Filter, cmd = m.Filter.Update(msg)
	if m.Filter.Value() != before {
		m.applyFilter()
	}
	return m, cmd
}

// applyFilter keeps recipes whose name contains the filter text and resets
// the cursor to the top.
func (m *RecipeListModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.Filter.Value()))
	m.visible = m.visible[:0:0]
	for _, r := range m.Recipes {
		if q == "" || strings.Contains(strings.ToLower(r.Name), q) {
			m.visible = append(m.visible, r)
		}
	}
	m.Cursor, m.Offset = 0, 0
}

func (m RecipeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Recipe"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("type to filter  ↑/↓ navigate  ⏎ select  esc quit"))
	b.WriteString("\n")
	b.WriteString(m.Filter.View())
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.visible))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.visible[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		version := r.Version
		if version == "" {
			version = "—"
		}
		rows = append(rows, []string{
			cursor,
			r.Name,
			version,
			strings.Join(r.Settings, ", "),
			strconv.Itoa(len(r.Requires)),
			strconv.Itoa(len(r.Rules)),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Recipe", "Version", "Settings", "Requires", "Rules").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				if col == 1 {
					return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
				}
				return lipgloss.NewStyle().Bold(true)
			}
			if col >= 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d of %d]", min(m.Cursor+1, len(m.visible)), len(m.visible), len(m.Recipes))))

	return b.String()
}

// pickRecipe runs the picker and returns the chosen recipe. Quitting
// without a choice is an input error.
func pickRecipe(recipes []*recipe.Recipe) (*recipe.Recipe, error) {
	final, err := tea.NewProgram(NewRecipeListModel(recipes)).Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(RecipeListModel)
	if !ok || m.Selected == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no recipe selected")
	}
	return m.Selected, nil
}
