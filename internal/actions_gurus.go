package internal

import (
	"context"
	"net/http"
)

// guruListCache is the caching hint for guru listings: never cached on
// self-hosted deployments, revalidated hourly otherwise.
func (c *Catalog) guruListCache() RequestOptions {
	if c.sessions.SelfHosted() {
		return RequestOptions{Cache: CacheNoStore}
	}
	return RequestOptions{Next: &NextOptions{Revalidate: 3600}}
}

// GuruTypes lists the active gurus.
func (c *Catalog) GuruTypes(ctx context.Context) Result[[]GuruType] {
	return run(c, "getGuruTypes", nil, func() ([]GuruType, error) {
		return publicJSON[[]GuruType](ctx, c, c.endpoint("guru_types"), c.guruListCache())
	})
}

// GuruType returns the backend's full description of one guru.
func (c *Catalog) GuruType(ctx context.Context, slug string) Result[Object] {
	return run(c, "getGuruType", Fields{"slug": slug}, func() (Object, error) {
		return publicJSON[Object](ctx, c, c.endpoint("guru_type", slug), c.guruListCache())
	})
}

// CheckGuruReadiness reports whether a guru finished indexing. Any failure
// reads as not ready.
func (c *Catalog) CheckGuruReadiness(ctx context.Context, guru string) bool {
	var body struct {
		Ready bool `json:"ready"`
	}
	u := c.endpoint("guru_types", "status", guru)
	if err := c.dispatcher.PublicJSON(ctx, u, RequestOptions{Cache: CacheNoStore}, &body); err != nil {
		LogDebug("Readiness check for %s failed: %v", guru, err)
		RecordActionResult("checkGuruReadiness", OutcomeEmpty)
		return false
	}
	RecordActionResult("checkGuruReadiness", OutcomeOK)
	return body.Ready
}

// MyGurus lists the gurus the user maintains.
func (c *Catalog) MyGurus(ctx context.Context) Result[[]Object] {
	u := c.endpoint("my_gurus")
	return run(c, "getMyGurus", Fields{"url": u}, func() ([]Object, error) {
		return authJSON[[]Object](ctx, c, u, RequestOptions{})
	})
}

// MyGuru returns one maintained guru.
func (c *Catalog) MyGuru(ctx context.Context, slug string) Result[Object] {
	u := c.endpoint("my_gurus", slug)
	return run(c, "getMyGuru", Fields{"url": u}, func() (Object, error) {
		return authJSON[Object](ctx, c, u, RequestOptions{})
	})
}

// CreateGuru submits the guru creation form (name, domain knowledge, icon...).
func (c *Catalog) CreateGuru(ctx context.Context, form *FormData) Result[Object] {
	return run(c, "createGuru", nil, func() (Object, error) {
		opts, err := form.Request(http.MethodPost)
		if err != nil {
			return nil, err
		}
		return authJSON[Object](ctx, c, c.endpoint("guru_types", "create_frontend"), opts)
	})
}

// UpdateGuru replaces a guru's settings from form.
func (c *Catalog) UpdateGuru(ctx context.Context, slug string, form *FormData) Result[Object] {
	return run(c, "updateGuru", Fields{"guruSlug": slug}, func() (Object, error) {
		opts, err := form.Request(http.MethodPut)
		if err != nil {
			return nil, err
		}
		return authJSON[Object](ctx, c, c.endpoint("guru_types", "update", slug), opts)
	})
}

// DeleteGuru removes a guru.
func (c *Catalog) DeleteGuru(ctx context.Context, slug string) Result[Object] {
	return run(c, "deleteGuru", Fields{"guruSlug": slug}, func() (Object, error) {
		opts, err := jsonOpts(http.MethodDelete, nil)
		if err != nil {
			return nil, err
		}
		return authJSON[Object](ctx, c, c.endpoint("guru_types", "delete", slug), opts)
	})
}

// SubmitGuruCreationForm sends a "request a guru" form, signed in or not.
func (c *Catalog) SubmitGuruCreationForm(ctx context.Context, form GuruCreationForm) Result[Object] {
	return run(c, "submitGuruCreationForm", nil, func() (Object, error) {
		opts, err := jsonOpts(http.MethodPost, form)
		if err != nil {
			return nil, err
		}
		return switchedJSON[Object](ctx, c, c.endpoint("guru_types", "submit_form"), opts)
	})
}

// CreateWidgetID registers a domain allowed to embed the guru widget.
func (c *Catalog) CreateWidgetID(ctx context.Context, guru, domainURL string) Result[Object] {
	return run(c, "createWidgetId", Fields{"domainUrl": domainURL}, func() (Object, error) {
		opts, err := jsonOpts(http.MethodPost, map[string]string{"domain_url": domainURL})
		if err != nil {
			return nil, err
		}
		return authJSON[Object](ctx, c, c.endpoint(guru, "widget_ids"), opts)
	})
}

// DeleteWidgetID revokes a widget id.
func (c *Catalog) DeleteWidgetID(ctx context.Context, guru, widgetID string) Result[Ack] {
	return run(c, "deleteWidgetId", Fields{"widgetId": widgetID}, func() (Ack, error) {
		opts, err := jsonOpts(http.MethodDelete, map[string]string{"widget_id": widgetID})
		if err != nil {
			return Ack{}, err
		}
		if _, err := c.dispatcher.Authenticated(ctx, c.endpoint(guru, "widget_ids"), opts); err != nil {
			return Ack{}, withFallback(err, "Failed to delete widget ID")
		}
		return Ack{Success: true, Message: "Widget ID deleted successfully"}, nil
	})
}
