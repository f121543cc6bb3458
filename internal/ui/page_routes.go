package ui

import (
	"fmt"
	"strconv"

	"bike-dash/internal/domain"

	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"
)

func routesPage(summary *domain.RouteSummary, limit int) gomponents.Node {
	if summary.Warning != "" {
		return appPage("Top routes", "routes",
			noticeCard("warning", "Routes cannot be computed", summary.Warning),
		)
	}
	if len(summary.Routes) == 0 {
		return appPage("Top routes", "routes", emptyStateCard("No trips between two different stations.", "", ""))
	}

	top := summary.Routes[0].Trips
	rows := make([]gomponents.Node, 0, len(summary.Routes))
	for i, rc := range summary.Routes {
		width := 0.0
		if top > 0 {
			width = float64(rc.Trips) * 100 / float64(top)
		}
		rows = append(rows, html.Tr(
			data.Show(containsExpr(rc.Route)),
			html.Td(html.Class("num"), gomponents.Text(strconv.Itoa(i+1))),
			html.Td(gomponents.Text(rc.Route)),
			html.Td(html.Class("num"), gomponents.Text(strconv.FormatInt(rc.Trips, 10))),
			html.Td(html.Class("bar-cell"), html.Span(html.Class("bar"), html.Style(fmt.Sprintf("width: %.1f%%", width)))),
		))
	}

	return appPage("Top routes", "routes",
		html.Div(
			data.Signals(map[string]any{"q": ""}),
			quickFilterCard("Filter by station",
				html.Span(html.Class(mutedClass()), gomponents.Text(fmt.Sprintf("Top %d by %s and %s", limit, summary.OriginColumn, summary.DestinationColumn))),
			),
			html.Div(
				html.Class(cardClass("table-wrap")),
				html.Table(
					html.THead(html.Tr(
						html.Th(gomponents.Text("#")),
						html.Th(gomponents.Text("Route")),
						html.Th(gomponents.Text("Trips")),
						html.Th(),
					)),
					html.TBody(gomponents.Group(rows)),
				),
			),
		),
	)
}
