package internal

import (
	"context"
	"net/http"
)

// GuruDataSources pages through a guru's data sources with their status.
func (c *Catalog) GuruDataSources(ctx context.Context, guru string, page int) Result[Object] {
	if page < 1 {
		page = 1
	}
	u := withQuery(c.endpoint(guru, "resources", "detailed"), "page", itoa(page))
	return run(c, "getGuruDataSources", Fields{"customGuru": guru, "page": page}, func() (Object, error) {
		return authJSON[Object](ctx, c, u, RequestOptions{})
	})
}

// AddGuruSources uploads files and URLs as new data sources.
func (c *Catalog) AddGuruSources(ctx context.Context, guru string, form *FormData) Result[Object] {
	return run(c, "addGuruSources", Fields{"guruSlug": guru}, func() (Object, error) {
		opts, err := form.Request(http.MethodPost)
		if err != nil {
			return nil, err
		}
		return authJSON[Object](ctx, c, c.endpoint(guru, "data_sources_frontend"), opts)
	})
}

// DeleteGuruSources removes data sources by id.
func (c *Catalog) DeleteGuruSources(ctx context.Context, guru string, ids []string) Result[Ack] {
	return run(c, "deleteGuruSources", Fields{"guruSlug": guru, "sourceIds": ids}, func() (Ack, error) {
		return c.ackJSON(ctx, http.MethodDelete, c.endpoint(guru, "data_sources_frontend"), map[string][]string{"ids": ids})
	})
}

// ReindexGuruSources queues data sources for reindexing.
func (c *Catalog) ReindexGuruSources(ctx context.Context, guru string, ids []string) Result[Ack] {
	return run(c, "reindexGuruSources", Fields{"guruSlug": guru, "sourceIds": ids}, func() (Ack, error) {
		return c.ackJSON(ctx, http.MethodPost, c.endpoint(guru, "data_sources_reindex"), map[string][]string{"ids": ids})
	})
}

// UpdateDataSourcesPrivacy flips the private flag of data sources.
func (c *Catalog) UpdateDataSourcesPrivacy(ctx context.Context, guru string, payload interface{}) Result[Object] {
	return run(c, "updateGuruDataSourcesPrivacy", Fields{"guruSlug": guru}, func() (Object, error) {
		out, err := c.postJSON(ctx, c.endpoint(guru, "data_sources", "update"), payload)
		return out, withFallback(err, "Failed to update data sources privacy")
	})
}

// ParseSitemapURLs expands a sitemap into the URLs it lists.
func (c *Catalog) ParseSitemapURLs(ctx context.Context, sitemapURL string) Result[Object] {
	return run(c, "parseSitemapUrls", Fields{"sitemapUrl": sitemapURL}, func() (Object, error) {
		opts, err := jsonOpts(http.MethodPost, map[string]string{"sitemap_url": sitemapURL})
		if err != nil {
			return nil, err
		}
		return publicJSON[Object](ctx, c, c.endpoint("parse_sitemap"), opts)
	})
}

// JiraIssues runs a JQL query through a Jira integration.
func (c *Catalog) JiraIssues(ctx context.Context, integrationID, jql string) Result[Object] {
	return run(c, "fetchJiraIssues", Fields{"integrationId": integrationID, "jqlQuery": jql}, func() (Object, error) {
		out, err := c.postJSON(ctx, c.endpoint("jira", "issues", integrationID), map[string]string{"jql": jql})
		return out, withFallback(err, "Failed to fetch Jira issues")
	})
}

// ConfluencePages searches pages through a Confluence integration.
func (c *Catalog) ConfluencePages(ctx context.Context, integrationID, query string) Result[Object] {
	return run(c, "fetchConfluencePages", Fields{"integrationId": integrationID, "searchQuery": query}, func() (Object, error) {
		out, err := c.postJSON(ctx, c.endpoint("confluence", "pages", integrationID), map[string]string{"query": query})
		return out, withFallback(err, "Failed to fetch Confluence pages")
	})
}

// ZendeskTickets lists ticket links available through a Zendesk integration.
func (c *Catalog) ZendeskTickets(ctx context.Context, integrationID string) Result[Object] {
	return run(c, "fetchZendeskTickets", Fields{"integrationId": integrationID}, func() (Object, error) {
		out, err := authJSON[Object](ctx, c, c.endpoint("zendesk", "tickets", integrationID), RequestOptions{Method: http.MethodGet})
		return out, withFallback(err, "Failed to fetch Zendesk tickets")
	})
}

// ZendeskArticles lists help center articles available through a Zendesk integration.
func (c *Catalog) ZendeskArticles(ctx context.Context, integrationID string) Result[Object] {
	return run(c, "fetchZendeskArticles", Fields{"integrationId": integrationID}, func() (Object, error) {
		out, err := authJSON[Object](ctx, c, c.endpoint("zendesk", "articles", integrationID), RequestOptions{Method: http.MethodGet})
		return out, withFallback(err, "Failed to fetch Zendesk articles")
	})
}

// StartCrawl starts crawling a website into a guru.
func (c *Catalog) StartCrawl(ctx context.Context, guru, target string) Result[Object] {
	return run(c, "startCrawl", Fields{"url": target}, func() (Object, error) {
		return c.postJSON(ctx, c.endpoint(guru, "crawl", "start"), map[string]string{"url": target})
	})
}

// StopCrawl stops a running crawl.
func (c *Catalog) StopCrawl(ctx context.Context, crawlID string) Result[Object] {
	return run(c, "stopCrawl", Fields{"crawlId": crawlID}, func() (Object, error) {
		return c.postJSON(ctx, c.endpoint("crawl", crawlID, "stop"), nil)
	})
}

// CrawlStatus reports crawl progress and discovered URLs.
func (c *Catalog) CrawlStatus(ctx context.Context, crawlID string) Result[Object] {
	return run(c, "getCrawlStatus", Fields{"crawlId": crawlID}, func() (Object, error) {
		return authJSON[Object](ctx, c, c.endpoint("crawl", crawlID, "status"), getJSON())
	})
}

// YoutubePlaylist lists the videos of a playlist.
func (c *Catalog) YoutubePlaylist(ctx context.Context, target string) Result[Object] {
	return run(c, "fetchYoutubePlaylist", Fields{"url": target}, func() (Object, error) {
		return c.postJSON(ctx, c.endpoint("youtube", "playlist"), map[string]string{"url": target})
	})
}

// YoutubeChannel lists the videos of a channel.
func (c *Catalog) YoutubeChannel(ctx context.Context, target string) Result[Object] {
	return run(c, "fetchYoutubeChannel", Fields{"url": target}, func() (Object, error) {
		return c.postJSON(ctx, c.endpoint("youtube", "channel"), map[string]string{"url": target})
	})
}

// postJSON is an authenticated JSON POST decoded into an object.
func (c *Catalog) postJSON(ctx context.Context, u string, payload interface{}) (Object, error) {
	opts, err := jsonOpts(http.MethodPost, payload)
	if err != nil {
		return nil, err
	}
	return authJSON[Object](ctx, c, u, opts)
}

func (c *Catalog) ackJSON(ctx context.Context, method, u string, payload interface{}) (Ack, error) {
	opts, err := jsonOpts(method, payload)
	if err != nil {
		return Ack{}, err
	}
	if _, err := c.dispatcher.Authenticated(ctx, u, opts); err != nil {
		return Ack{}, err
	}
	return Ack{Success: true}, nil
}
