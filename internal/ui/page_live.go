package ui

import (
	"bike-dash/internal/domain"

	gomponents "maragu.dev/gomponents"
	data "maragu.dev/gomponents-datastar"
	html "maragu.dev/gomponents/html"
)

func liveDisabledPage() gomponents.Node {
	return appPage("Live stations", "live",
		noticeCard("info", "Live status is off", "Set GBFS_INDEX_URL to a GBFS feed index to show live station status."),
	)
}

func liveErrorPage(message string) gomponents.Node {
	return appPage("Live stations", "live",
		noticeCard("danger", "Live status unavailable", message),
	)
}

func livePage(snap *domain.LiveSnapshot, indexURL string) gomponents.Node {
	meta := html.P(html.Class(mutedClass()),
		gomponents.Textf("Top %d stations by %s, fetched %s from ", snap.Stations.Len(), snap.SortColumn, formatTime(snap.FetchedAt)),
		html.Code(gomponents.Text(indexURL)),
	)
	if snap.Stations.Len() == 0 {
		return appPage("Live stations", "live", meta, emptyStateCard("The feed lists no stations.", "", ""))
	}
	return appPage("Live stations", "live",
		meta,
		html.Div(
			data.Signals(map[string]any{"q": ""}),
			quickFilterCard("Filter stations"),
			dataTable(snap.Stations),
		),
	)
}
