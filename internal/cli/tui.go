package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/layerweave/pkg/graph"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// LayerListModel - Interactive layer selection
// =============================================================================

// layerRow is the display summary of one layer.
type layerRow struct {
	index    int
	vertices int
	edges    int
	root     string
	ids      []string
}

// LayerListModel is the bubbletea model behind `tree --pick`.
type LayerListModel struct {
	rows     []layerRow
	Cursor   int
	Selected *int
	Height   int
	Offset   int
}

// NewLayerListModel summarizes the layers of m for selection.
func NewLayerListModel(m *graph.Model) LayerListModel {
	rows := make([]layerRow, 0, m.LayerCount())
	for _, l := range m.Layers() {
		edges := 0
		for _, v := range m.LayerVertices(l.Index) {
			edges += len(v.LayerIncidences())
		}
		rows = append(rows, layerRow{
			index:    l.Index,
			vertices: l.Len(),
			edges:    edges / 2,
			root:     l.Root,
			ids:      l.IDs,
		})
	}
	return LayerListModel{rows: rows, Height: 15}
}

func (m LayerListModel) Init() tea.Cmd {
	return nil
}

func (m LayerListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.rows) == 0 || m.rows[m.Cursor].vertices == 0 {
				return m, nil
			}
			idx := m.rows[m.Cursor].index
			m.Selected = &idx
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m LayerListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Layer"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.rows))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		root := r.root
		if root == "" {
			root = "-"
		}
		rows = append(rows, []string{
			cursor,
			strconv.Itoa(r.index),
			strconv.Itoa(r.vertices),
			strconv.Itoa(r.edges),
			root,
			joinIDs(r.ids, 4),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Layer", "Vertices", "Edges", "Root", "Members").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(m.rows) {
				return lipgloss.NewStyle()
			}
			empty := m.rows[idx].vertices == 0
			switch {
			case idx == m.Cursor && empty:
				return StyleDim.Bold(true)
			case idx == m.Cursor:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			case empty || col == 5:
				return StyleDim
			}
			return StyleValue
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.rows))))

	return b.String()
}
