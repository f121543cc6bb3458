package ui

import (
	"fmt"
	"net/http"
	"strconv"

	"bike-dash/internal/domain"

	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"
)

func tripsPage(r *http.Request, info *domain.DatasetInfo, preview *domain.Table, reloaded bool) gomponents.Node {
	notice := gomponents.Node(nil)
	if reloaded {
		notice = noticeCard("info", "Reloaded", fmt.Sprintf("Trip data reloaded from %s.", info.Location))
	}

	source := []gomponents.Node{
		html.Dt(gomponents.Text("Origin")), html.Dd(statusLabel(string(info.Origin), originTone(info.Origin))),
		html.Dt(gomponents.Text("Location")), html.Dd(html.Code(gomponents.Text(info.Location))),
		html.Dt(gomponents.Text("Rows")), html.Dd(gomponents.Text(strconv.Itoa(info.Rows))),
		html.Dt(gomponents.Text("Loaded")), html.Dd(gomponents.Text(formatTime(info.LoadedAt))),
	}
	if m := info.Manifest; m != nil {
		source = append(source,
			html.Dt(gomponents.Text("Ingested")), html.Dd(gomponents.Text(formatTime(m.IngestedAt))),
			html.Dt(gomponents.Text("Ingested from")), html.Dd(html.Code(gomponents.Text(m.Source))),
		)
	}

	reload := html.Form(
		html.Method("post"),
		html.Action("/ui/trips/reload"),
		csrfField(r),
		html.Button(html.Type("submit"), html.Class(secondaryButtonClass()), gomponents.Text("Reload data")),
	)

	body := gomponents.Node(emptyStateCard("The trip table has no rows.", "", ""))
	if preview.Len() > 0 {
		body = html.Div(
			data.Signals(map[string]any{"q": ""}),
			quickFilterCard("Filter preview rows", html.Span(html.Class(mutedClass()), gomponents.Text(countLabel(preview.Len(), "row")+" of "+strconv.Itoa(info.Rows)))),
			dataTable(preview),
		)
	}

	return appPage("Trips", "trips",
		notice,
		html.Div(
			html.Class(cardClass()),
			html.Div(html.Class("d-flex flex-justify-between flex-items-center"), html.H2(gomponents.Text("Dataset")), reload),
			html.Dl(html.Class("meta-list"), gomponents.Group(source)),
		),
		body,
	)
}

func originTone(o domain.DatasetOrigin) string {
	switch o {
	case domain.OriginCSV:
		return "accent"
	case domain.OriginRemote:
		return "attention"
	default:
		return "success"
	}
}
