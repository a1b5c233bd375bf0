package internal

import (
	"context"
	"net/http"
	"strings"
)

// Summary asks a guru a question. Failures always carry a provider type and
// reason so callers can point at the right settings.
func (c *Catalog) Summary(ctx context.Context, guru string, req SummaryRequest) Result[*Summary] {
	r := run(c, "getAnswerFromMyBackend", Fields{"guruType": guru}, func() (*Summary, error) {
		opts, err := jsonOpts(http.MethodPost, req)
		if err != nil {
			return nil, err
		}
		return switchedJSON[*Summary](ctx, c, c.endpoint(guru, "summary"), opts)
	})
	if r.IsFailed() {
		if r.Err.Type == "" {
			r.Err.Type = "openai"
		}
		if r.Err.Reason == "" {
			r.Err.Reason = "openai_key_invalid"
		}
	}
	return r
}

// DefaultQuestions returns a guru's featured questions.
func (c *Catalog) DefaultQuestions(ctx context.Context, guru string) Result[[]DefaultQuestion] {
	return run(c, "fetchDefaultQuestion", Fields{"guruType": guru}, func() ([]DefaultQuestion, error) {
		opts := RequestOptions{Next: &NextOptions{Revalidate: 3600}}
		return publicJSON[[]DefaultQuestion](ctx, c, c.endpoint(guru, "default_questions"), opts)
	})
}

// QuestionDetails loads an answered question, optionally inside a binge.
func (c *Catalog) QuestionDetails(ctx context.Context, guru, slug, bingeID, question string) Result[*QuestionDetail] {
	u := c.cfg.Endpoint("/%s/question/%s", pathSeg(guru), pathSeg(slug))
	u = withQuery(u, "question", question, "binge_id", bingeID)
	return run(c, "getDataForSlugDetails", Fields{"guruType": guru, "slug": slug}, func() (*QuestionDetail, error) {
		return switchedJSON[*QuestionDetail](ctx, c, u, RequestOptions{Next: &NextOptions{Revalidate: 10}})
	})
}

// GuruResources lists the public resources a guru was built from.
func (c *Catalog) GuruResources(ctx context.Context, guru string) Result[Document] {
	return run(c, "getGurutypeResources", Fields{"guruType": guru}, func() (Document, error) {
		opts := RequestOptions{Next: &NextOptions{Revalidate: 3600}}
		return publicJSON[Document](ctx, c, c.endpoint(guru, "resources"), opts)
	})
}

// ExampleQuestions suggests follow-ups for a question. Any failure yields an
// empty list.
func (c *Catalog) ExampleQuestions(ctx context.Context, guru string, req ExampleQuestionsRequest) []string {
	if req.QuestionSlug == "" {
		return []string{}
	}
	opts, err := jsonOpts(http.MethodPost, req)
	if err != nil {
		return []string{}
	}
	opts.Cache = CacheNoStore

	resp, err := c.switched(ctx, c.endpoint(guru, "follow_up", "examples"), opts)
	if err != nil {
		LogDebug("Example questions for %s failed: %v", guru, err)
		RecordActionResult("getExampleQuestions", OutcomeEmpty)
		return []string{}
	}
	var out []string
	if err := resp.JSON(&out); err != nil || out == nil {
		RecordActionResult("getExampleQuestions", OutcomeEmpty)
		return []string{}
	}
	RecordActionResult("getExampleQuestions", OutcomeOK)
	return out
}

// CreateBinge starts a follow-up session rooted at a question and returns its
// id, or "" when it could not be created.
func (c *Catalog) CreateBinge(ctx context.Context, guru, rootSlug string) string {
	opts, err := jsonOpts(http.MethodPost, map[string]string{"root_slug": rootSlug})
	if err != nil {
		return ""
	}
	var body struct {
		ID string `json:"id"`
	}
	if err := c.dispatcher.AuthenticatedJSON(ctx, c.endpoint(guru, "follow_up", "binge"), opts, &body); err != nil {
		LogDebug("Failed to initialize binge session: %v", err)
		RecordActionResult("createBinge", OutcomeEmpty)
		return ""
	}
	RecordActionResult("createBinge", OutcomeOK)
	return body.ID
}

// BingeData returns the question graph of a binge.
func (c *Catalog) BingeData(ctx context.Context, guru, bingeID string) Result[Object] {
	u := withQuery(c.endpoint(guru, "follow_up", "graph"), "binge_id", bingeID)
	return run(c, "getBingeData", Fields{"guruType": guru, "bingeId": bingeID}, func() (Object, error) {
		return switchedJSON[Object](ctx, c, u, RequestOptions{})
	})
}

// BingeHistory pages through the user's past binges.
func (c *Catalog) BingeHistory(ctx context.Context, page int, query string) Result[Object] {
	if page < 1 {
		page = 1
	}
	u := c.endpoint("binge-history") + "?page_num=" + itoa(page) + "&search_query=" + queryEscape(query)
	return run(c, "getBingeHistory", Fields{"page": page}, func() (Object, error) {
		return authJSON[Object](ctx, c, u, RequestOptions{})
	})
}

// SitemapData fetches a sitemap document verbatim. No credentials are sent.
// slug may span several path segments but never climbs out of the backend root.
func (c *Catalog) SitemapData(ctx context.Context, slug string) Result[string] {
	segments := strings.Split(strings.Trim(slug, "/"), "/")
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			return FailedMessage[string]("Invalid sitemap path", http.StatusBadRequest)
		}
	}
	u := strings.TrimSuffix(c.endpoint(segments...), "/")
	return run(c, "getSitemapData", Fields{"slug": slug}, func() (string, error) {
		resp, err := c.dispatcher.Raw(ctx, u, RequestOptions{Next: &NextOptions{Revalidate: 3600}})
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	})
}
