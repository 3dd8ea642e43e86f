// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package term

import (
	"fmt"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Break characters for word wrapping, in addition to whitespace.
const wrapBreakpoints = " ,.;-+|"

var (
	markdownParserOnce sync.Once
	markdownParser     goldmark.Markdown
)

// Tables are left out: patch descriptions render them as the source
// text, which reads fine in a terminal.
func getMarkdownParser() goldmark.Markdown {
	markdownParserOnce.Do(func() {
		markdownParser = goldmark.New(
			goldmark.WithExtensions(
				extension.Strikethrough,
				extension.TaskList,
				extension.Linkify,
			),
		)
	})
	return markdownParser
}

// Markdown writes source rendered for the terminal, word-wrapped to
// the terminal width.
func (t *Terminal) Markdown(source string) {
	rendered := t.RenderMarkdown(source)
	if rendered == "" {
		return
	}
	fmt.Fprintln(t.out, rendered)
}

// RenderMarkdown renders source for the terminal without writing it.
// Soft line breaks reflow; trailing blank lines are dropped.
func (t *Terminal) RenderMarkdown(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	data := []byte(source)
	document := getMarkdownParser().Parser().Parse(text.NewReader(data))

	renderer := &markdownRenderer{
		terminal: t,
		source:   data,
		width:    t.width,
	}
	ast.Walk(document, renderer.walk)
	return strings.TrimRight(renderer.output.String(), "\n")
}

type markdownRenderer struct {
	terminal *Terminal
	source   []byte
	width    int

	output           strings.Builder
	trailingNewlines int
	inline           strings.Builder

	linePrefix    string
	prefixWidths  []int
	pendingBullet string
	lists         []listState

	bold, italic, strikethrough int
}

type listState struct {
	ordered bool
	counter int
	tight   bool
}

func (r *markdownRenderer) style() lipgloss.Style {
	return r.terminal.style()
}

func (r *markdownRenderer) currentWidth() int {
	width := r.width - ansi.StringWidth(r.linePrefix)
	if width < 10 {
		width = 10
	}
	return width
}

func (r *markdownRenderer) pushPrefix(prefix string) {
	r.linePrefix += prefix
	r.prefixWidths = append(r.prefixWidths, len(prefix))
}

func (r *markdownRenderer) popPrefix() {
	if len(r.prefixWidths) == 0 {
		return
	}
	last := r.prefixWidths[len(r.prefixWidths)-1]
	r.prefixWidths = r.prefixWidths[:len(r.prefixWidths)-1]
	r.linePrefix = r.linePrefix[:len(r.linePrefix)-last]
}

func (r *markdownRenderer) inTightList() bool {
	return len(r.lists) > 0 && r.lists[len(r.lists)-1].tight
}

func (r *markdownRenderer) write(s string) {
	if s == "" {
		return
	}
	r.output.WriteString(s)
	trimmed := strings.TrimRight(s, "\n")
	newlines := len(s) - len(trimmed)
	if trimmed == "" {
		r.trailingNewlines += newlines
	} else {
		r.trailingNewlines = newlines
	}
}

func (r *markdownRenderer) ensureNewline() {
	if r.output.Len() > 0 && r.trailingNewlines < 1 {
		r.write("\n")
	}
}

func (r *markdownRenderer) ensureBlankLine() {
	if r.output.Len() == 0 {
		return
	}
	for r.trailingNewlines < 2 {
		r.write("\n")
	}
}

// prefixLines prefixes every line of content. The first line takes a
// pending list bullet when one is set.
func (r *markdownRenderer) prefixLines(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		prefix := r.linePrefix
		if i == 0 && r.pendingBullet != "" {
			prefix = r.pendingBullet
			r.pendingBullet = ""
		}
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func (r *markdownRenderer) flushInline() string {
	content := r.inline.String()
	r.inline.Reset()
	if content == "" {
		return ""
	}
	return r.prefixLines(ansi.Wrap(content, r.currentWidth(), wrapBreakpoints))
}

func (r *markdownRenderer) styled(content string) string {
	if r.bold == 0 && r.italic == 0 && r.strikethrough == 0 {
		return content
	}
	return r.style().
		Bold(r.bold > 0).
		Italic(r.italic > 0).
		Strikethrough(r.strikethrough > 0).
		Render(content)
}

func (r *markdownRenderer) lines(node ast.Node) string {
	var code strings.Builder
	segments := node.Lines()
	for i := 0; i < segments.Len(); i++ {
		segment := segments.At(i)
		code.Write(segment.Value(r.source))
	}
	return code.String()
}

// highlight colors code with chroma. Unknown languages and colorless
// terminals get the code dimmed or as-is.
func (r *markdownRenderer) highlight(code, language string) string {
	if !r.terminal.colored() {
		return code
	}
	if language != "" {
		var buffer strings.Builder
		if err := quick.Highlight(&buffer, code, language, "terminal256", "monokai"); err == nil {
			return buffer.String()
		}
	}
	return r.terminal.Dim(code)
}

func (r *markdownRenderer) writeCode(code string) {
	r.ensureBlankLine()
	for _, line := range strings.Split(strings.TrimRight(code, "\n"), "\n") {
		r.write(r.prefixLines(line))
		r.ensureNewline()
	}
	r.ensureBlankLine()
}

func (r *markdownRenderer) endBlock() {
	r.ensureNewline()
	if !r.inTightList() {
		r.ensureBlankLine()
	}
}

func (r *markdownRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			r.inline.Reset()
		} else if flushed := r.flushInline(); flushed != "" {
			r.write(flushed)
			r.endBlock()
		}

	case ast.KindHeading:
		if entering {
			r.inline.Reset()
			return ast.WalkContinue, nil
		}
		content := ansi.Strip(r.inline.String())
		r.inline.Reset()
		if content != "" {
			r.ensureBlankLine()
			r.write(r.prefixLines(r.terminal.Bold(content)))
			r.ensureNewline()
			r.ensureBlankLine()
		}

	case ast.KindFencedCodeBlock:
		if entering {
			block := node.(*ast.FencedCodeBlock)
			language := string(block.Language(r.source))
			r.writeCode(r.highlight(r.lines(node), language))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindCodeBlock:
		if entering {
			r.writeCode(r.highlight(r.lines(node), ""))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindHTMLBlock:
		if entering {
			if html := strings.TrimSpace(r.lines(node)); html != "" {
				r.write(r.prefixLines(r.terminal.Dim(html)))
				r.endBlock()
			}
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			r.pushPrefix("│ ")
		} else {
			r.popPrefix()
			r.ensureBlankLine()
		}

	case ast.KindList:
		if entering {
			list := node.(*ast.List)
			r.lists = append(r.lists, listState{
				ordered: list.IsOrdered(),
				counter: list.Start,
				tight:   list.IsTight,
			})
		} else {
			r.lists = r.lists[:len(r.lists)-1]
			if !r.inTightList() {
				r.ensureBlankLine()
			}
		}

	case ast.KindListItem:
		if entering {
			r.enterListItem()
		} else {
			r.popPrefix()
			r.endBlock()
		}

	case ast.KindThematicBreak:
		if entering {
			r.ensureBlankLine()
			r.write(r.prefixLines(r.terminal.Dim(strings.Repeat("─", r.currentWidth()))))
			r.ensureNewline()
			r.ensureBlankLine()
		}

	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			r.inline.WriteString(r.styled(string(textNode.Segment.Value(r.source))))
			if textNode.HardLineBreak() {
				r.inline.WriteString("\n")
			} else if textNode.SoftLineBreak() {
				r.inline.WriteString(" ")
			}
		}

	case ast.KindString:
		if entering {
			r.inline.WriteString(r.styled(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		counter := &r.italic
		if node.(*ast.Emphasis).Level >= 2 {
			counter = &r.bold
		}
		if entering {
			*counter++
		} else {
			*counter--
		}

	case extast.KindStrikethrough:
		if entering {
			r.strikethrough++
		} else {
			r.strikethrough--
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(r.source))
				}
			}
			r.inline.WriteString(r.terminal.Tertiary(code.String()))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if !entering {
			if destination := string(node.(*ast.Link).Destination); destination != "" {
				r.inline.WriteString(" " + r.terminal.Dim("("+destination+")"))
			}
		}

	case ast.KindAutoLink:
		if entering {
			url := string(node.(*ast.AutoLink).URL(r.source))
			r.inline.WriteString(r.terminal.Tertiary(url))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindImage:
		if entering {
			image := node.(*ast.Image)
			alt := ansi.Strip(string(image.Text(r.source)))
			r.inline.WriteString(r.terminal.Dim("[" + alt + "] (" + string(image.Destination) + ")"))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindRawHTML:
		if entering {
			return ast.WalkSkipChildren, nil
		}

	case extast.KindTaskCheckBox:
		if entering {
			if node.(*extast.TaskCheckBox).IsChecked {
				r.inline.WriteString(r.terminal.Positive("[x]") + " ")
			} else {
				r.inline.WriteString("[ ] ")
			}
		}
	}

	return ast.WalkContinue, nil
}

func (r *markdownRenderer) enterListItem() {
	if len(r.lists) == 0 {
		return
	}
	top := &r.lists[len(r.lists)-1]
	bullet := "• "
	if top.ordered {
		bullet = fmt.Sprintf("%d. ", top.counter)
		top.counter++
	}
	r.pendingBullet = r.linePrefix + bullet
	r.pushPrefix(strings.Repeat(" ", ansi.StringWidth(bullet)))
}
