package ui

import (
	"strconv"

	"bike-dash/internal/domain"

	gomponents "maragu.dev/gomponents"
	html "maragu.dev/gomponents/html"
)

type overviewCardData struct {
	Title       string
	Description string
	Href        string
	LinkLabel   string
}

func overviewPage(info *domain.DatasetInfo, datasetErr string, liveEnabled bool) gomponents.Node {
	stats := gomponents.Node(nil)
	if info != nil {
		stats = html.Div(
			html.Class("grid"),
			statCard("Trips", strconv.Itoa(info.Rows)),
			statCard("Columns", strconv.Itoa(len(info.Columns))),
			statCard("Source", string(info.Origin)),
			statCard("Loaded", formatTime(info.LoadedAt)),
		)
	}

	notice := gomponents.Node(nil)
	if datasetErr != "" {
		notice = noticeCard("danger", "Trip data unavailable", datasetErr)
	}

	liveDesc := "Stations with the most bikes available right now."
	if !liveEnabled {
		liveDesc = "Disabled. Set GBFS_INDEX_URL to enable."
	}
	cards := []overviewCardData{
		{Title: "Trips", Description: "Preview the trip records and where they were loaded from.", Href: "/ui/trips", LinkLabel: "Open trips ->"},
		{Title: "Top routes", Description: "The most frequent station pairs, in either direction.", Href: "/ui/routes", LinkLabel: "Open routes ->"},
		{Title: "Live stations", Description: liveDesc, Href: "/ui/live", LinkLabel: "Open live view ->"},
	}
	nodes := make([]gomponents.Node, 0, len(cards))
	for i := range cards {
		c := cards[i]
		nodes = append(nodes, html.Div(html.Class(cardClass()), html.H2(gomponents.Text(c.Title)), html.P(gomponents.Text(c.Description)), html.A(html.Href(c.Href), gomponents.Text(c.LinkLabel))))
	}
	return appPage("Overview", "home", notice, stats, html.Div(html.Class("grid"), gomponents.Group(nodes)))
}
