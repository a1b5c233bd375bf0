package internal

import (
	"context"
	"net/http"
)

// APIKeys lists the user's API keys.
func (c *Catalog) APIKeys(ctx context.Context) Result[Document] {
	return run(c, "getApiKeys", nil, func() (Document, error) {
		return authJSON[Document](ctx, c, c.endpoint("api_keys"), getJSON())
	})
}

// CreateAPIKey creates a named API key.
func (c *Catalog) CreateAPIKey(ctx context.Context, name string) Result[Object] {
	return run(c, "createApiKey", Fields{"name": name}, func() (Object, error) {
		return c.postJSON(ctx, c.endpoint("api_keys"), map[string]string{"name": name})
	})
}

// DeleteAPIKey revokes an API key.
func (c *Catalog) DeleteAPIKey(ctx context.Context, id string) Result[Object] {
	return run(c, "deleteApiKey", Fields{"id": id}, func() (Object, error) {
		opts, err := jsonOpts(http.MethodDelete, map[string]string{"api_key": id})
		if err != nil {
			return nil, err
		}
		return authJSON[Object](ctx, c, c.endpoint("api_keys"), opts)
	})
}

// Settings returns the deployment settings (provider keys, scrape type...).
func (c *Catalog) Settings(ctx context.Context) Result[Object] {
	return run(c, "getSettings", nil, func() (Object, error) {
		return authJSON[Object](ctx, c, c.endpoint("settings"), getJSON())
	})
}

// UpdateSettings writes the deployment settings.
func (c *Catalog) UpdateSettings(ctx context.Context, update SettingsUpdate) Result[Object] {
	return run(c, "updateSettings", nil, func() (Object, error) {
		opts, err := jsonOpts(http.MethodPut, update)
		if err != nil {
			return nil, err
		}
		return authJSON[Object](ctx, c, c.endpoint("settings"), opts)
	})
}

// ValidateOllamaURL asks the backend whether an Ollama server is reachable.
func (c *Catalog) ValidateOllamaURL(ctx context.Context, target string) Result[Object] {
	return run(c, "validateOllamaUrl", Fields{"url": target}, func() (Object, error) {
		opts, err := jsonOpts(http.MethodPost, map[string]string{"url": target})
		if err != nil {
			return nil, err
		}
		return publicJSON[Object](ctx, c, c.endpoint("validate", "ollama"), opts)
	})
}
