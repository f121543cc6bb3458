package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bike-dash/internal/domain"

	. "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	. "maragu.dev/gomponents/html"
)

const datastarSrc = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"

type navItem struct {
	Label string
	Href  string
	Key   string
	Icon  string
}

var navItems = []navItem{
	{Label: "Overview", Href: "/ui", Key: "home", Icon: "house"},
	{Label: "Trips", Href: "/ui/trips", Key: "trips", Icon: "table"},
	{Label: "Top routes", Href: "/ui/routes", Key: "routes", Icon: "route"},
	{Label: "Live stations", Href: "/ui/live", Key: "live", Icon: "radio-tower"},
}

func pageHead(title string) Node {
	return Head(
		Meta(Charset("utf-8")),
		Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
		TitleEl(Text(title+" | Bike Dash")),
		Link(Rel("icon"), Href("data:,")),
		Link(Rel("stylesheet"), Href(uiStylesheetHref())),
		Script(Raw(themeInitScript)),
		Script(Src("https://unpkg.com/lucide@latest/dist/umd/lucide.min.js")),
		Script(Type("module"), Src(datastarSrc)),
	)
}

func appPage(title, active string, body ...Node) Node {
	nav := make([]Node, 0, len(navItems))
	for _, item := range navItems {
		className := "app-nav-link"
		if item.Key == active {
			className += " active"
		}
		nav = append(nav, A(
			Href(item.Href),
			Class(className),
			I(Class("nav-icon"), Attr("data-lucide", item.Icon), Attr("aria-hidden", "true")),
			Span(Text(item.Label)),
		))
	}

	return HTML(
		Lang("en"),
		Attr("data-color-mode", "auto"),
		Attr("data-light-theme", "light"),
		Attr("data-dark-theme", "dark"),
		pageHead(title),
		Body(
			Main(Class("app-shell"),
				Aside(
					Class("app-sidebar"),
					Div(
						Class("brand"),
						Strong(Text("Bike Dash")),
						P(Class(mutedClass()), Text("Bikeshare trips and live stations")),
					),
					Nav(Class("app-nav"), Group(nav)),
				),
				Section(
					Class("app-main"),
					Div(
						Class("topbar"),
						H1(Class("page-title"), Text(title)),
						Button(
							ID("theme-toggle"), Type("button"), Class(secondaryButtonClass()+" btn-icon"),
							I(ID("theme-icon-sun"), Attr("data-lucide", "sun"), Attr("aria-hidden", "true")),
							I(ID("theme-icon-moon"), Class("is-hidden"), Attr("data-lucide", "moon"), Attr("aria-hidden", "true")),
						),
					),
					Div(Class("content"), Group(body)),
				),
			),
			Script(Raw("if (window.lucide) { window.lucide.createIcons(); }")),
			Script(Raw(themeBehaviorScript)),
		),
	)
}

func errorPage(title, message string) Node {
	return HTML(
		Lang("en"),
		Attr("data-color-mode", "auto"),
		Attr("data-light-theme", "light"),
		Attr("data-dark-theme", "dark"),
		pageHead(title),
		Body(
			Main(
				Class("layout"),
				H1(Class("page-title"), Text(title)),
				P(Text(message)),
				P(A(Href("/ui"), Text("Back to overview"))),
			),
		),
	)
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format(time.RFC3339)
}

func formatCell(v any) string {
	if v == nil {
		return "-"
	}
	return domain.FormatValue(v)
}

func containsExpr(value string) string {
	lower := strings.ToLower(value)
	return "$q === '' || " + strconv.Quote(lower) + ".includes($q.toLowerCase())"
}

func cardClass(extra ...string) string {
	parts := []string{"Box", "p-3", "mb-3", "card"}
	parts = append(parts, extra...)
	return strings.Join(parts, " ")
}

func mutedClass() string {
	return "color-fg-muted text-small"
}

func primaryButtonClass() string {
	return "btn btn-primary"
}

func secondaryButtonClass() string {
	return "btn"
}

func quickFilterCard(placeholder string, extraControls ...Node) Node {
	controls := []Node{
		Div(
			Class("d-flex flex-items-center gap-2 flex-1"),
			Label(Class("sr-only"), Text("Quick filter")),
			Input(Type("search"), Class("form-control"), Placeholder(placeholder), data.Bind("q"), AutoComplete("off")),
		),
	}
	controls = append(controls, extraControls...)
	return Div(
		Class(cardClass("toolbar")),
		Div(Class("d-flex flex-wrap flex-items-center gap-2"), Group(controls)),
	)
}

func emptyStateCard(message, ctaLabel, ctaHref string) Node {
	cta := Node(nil)
	if ctaLabel != "" && ctaHref != "" {
		cta = A(Href(ctaHref), Class(primaryButtonClass()), Text(ctaLabel))
	}
	return Div(
		Class(cardClass("blankslate")),
		P(Class("color-fg-muted mb-2"), Text(message)),
		cta,
	)
}

// noticeCard renders a flash-style card; tone is "warning", "info" or "danger".
func noticeCard(tone, title, message string) Node {
	return Div(
		Class(cardClass("flash", "flash-"+tone)),
		Attr("role", "status"),
		Strong(Text(title)),
		P(Class("mb-0"), Text(message)),
	)
}

func statusLabel(text, tone string) Node {
	className := "Label"
	if tone != "" {
		className += " Label--" + tone
	}
	return Span(Class(className), Text(text))
}

func statCard(label, value string) Node {
	return Div(
		Class(cardClass("stat")),
		P(Class(mutedClass()+" mb-1"), Text(label)),
		Strong(Class("stat-value"), Text(value)),
	)
}

// dataTable renders t with one row per record. Rows hide client-side when
// they do not contain the quick-filter signal $q.
func dataTable(t *domain.Table) Node {
	head := make([]Node, 0, len(t.Columns))
	for _, c := range t.Columns {
		head = append(head, Th(Title(string(c.Type)), Text(c.Name)))
	}
	rows := make([]Node, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]Node, 0, len(row))
		texts := make([]string, 0, len(row))
		for j, v := range row {
			s := formatCell(v)
			texts = append(texts, s)
			className := ""
			if t.Columns[j].Type == domain.TypeInteger || t.Columns[j].Type == domain.TypeFloat {
				className = "num"
			}
			cells = append(cells, Td(If(className != "", Class(className)), Text(s)))
		}
		rows = append(rows, Tr(data.Show(containsExpr(strings.Join(texts, " "))), Group(cells)))
	}
	return Div(
		Class(cardClass("table-wrap")),
		Table(THead(Tr(Group(head))), TBody(Group(rows))),
	)
}

func countLabel(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
