package internal

import (
	"context"
	"net/http"
)

// IntegrationDetails returns a guru's integration of the given type. When none
// exists yet the backend answers 202 with the encoded slug needed to start the
// OAuth install, returned as {"status":202,"encoded_guru_slug":...}.
func (c *Catalog) IntegrationDetails(ctx context.Context, guru, integrationType string) Result[Object] {
	fields := Fields{"guruType": guru, "integrationType": integrationType}
	return run(c, "getIntegrationDetails", fields, func() (Object, error) {
		resp, err := c.dispatcher.Authenticated(ctx, c.endpoint(guru, "integrations", integrationType), getJSON())
		if err != nil {
			return nil, withFallback(err, "Failed to fetch integration data")
		}
		var data Object
		if err := resp.JSON(&data); err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusAccepted {
			return Object{"status": http.StatusAccepted, "encoded_guru_slug": data["encoded_guru_slug"]}, nil
		}
		return data, nil
	})
}

// DeleteIntegration removes a guru's integration.
func (c *Catalog) DeleteIntegration(ctx context.Context, guru, integrationType string) Result[Object] {
	fields := Fields{"guruType": guru, "integrationType": integrationType}
	return run(c, "deleteIntegration", fields, func() (Object, error) {
		opts, err := jsonOpts(http.MethodDelete, nil)
		if err != nil {
			return nil, err
		}
		out, err := authJSON[Object](ctx, c, c.endpoint(guru, "integrations", integrationType), opts)
		return out, withFallback(err, "Failed to delete integration")
	})
}

// CreateSelfhostedIntegration stores manually entered integration credentials.
func (c *Catalog) CreateSelfhostedIntegration(ctx context.Context, guru, integrationType string, data SelfhostedIntegration) Result[Object] {
	fields := Fields{"guruType": guru, "integrationType": integrationType}
	return run(c, "createSelfhostedIntegration", fields, func() (Object, error) {
		out, err := c.postJSON(ctx, c.endpoint(guru, "integrations", integrationType), data)
		return out, withFallback(err, "Failed to create integration")
	})
}

// IntegrationChannels lists the channels an integration can answer in.
func (c *Catalog) IntegrationChannels(ctx context.Context, guru, integrationType string) Result[Object] {
	fields := Fields{"guruType": guru, "integrationType": integrationType}
	return run(c, "getIntegrationChannels", fields, func() (Object, error) {
		out, err := authJSON[Object](ctx, c, c.endpoint(guru, "integrations", integrationType, "channels"), getJSON())
		return out, withFallback(err, "Failed to fetch channels")
	})
}

// SaveIntegrationChannels replaces the channel selection of an integration.
func (c *Catalog) SaveIntegrationChannels(ctx context.Context, guru, integrationType string, channels interface{}) Result[Object] {
	fields := Fields{"guruType": guru, "integrationType": integrationType}
	return run(c, "saveIntegrationChannels", fields, func() (Object, error) {
		u := c.endpoint(guru, "integrations", integrationType, "channels")
		out, err := c.postJSON(ctx, u, map[string]interface{}{"channels": channels})
		return out, withFallback(err, "Failed to save channels")
	})
}

// IntegrationsList lists all integrations of a guru.
func (c *Catalog) IntegrationsList(ctx context.Context, guru string) Result[Document] {
	return run(c, "getIntegrationsList", Fields{"guruType": guru}, func() (Document, error) {
		out, err := authJSON[Document](ctx, c, c.endpoint(guru, "integrations"), getJSON())
		return out, withFallback(err, "Failed to fetch integrations list")
	})
}

// CreateIntegration completes an OAuth install with the provider's code and state.
func (c *Catalog) CreateIntegration(ctx context.Context, code, state string) Result[Object] {
	u := withQuery(c.endpoint("integrations", "create"), "code", code, "state", state)
	return run(c, "createIntegration", Fields{"code": code, "state": state}, func() (Object, error) {
		return publicJSON[Object](ctx, c, u, getJSON())
	})
}

// SendIntegrationTestMessage posts a test message into a channel.
func (c *Catalog) SendIntegrationTestMessage(ctx context.Context, integrationID, channelID string) Result[Object] {
	fields := Fields{"integrationId": integrationID, "channelId": channelID}
	return run(c, "sendIntegrationTestMessage", fields, func() (Object, error) {
		payload := map[string]string{"integration_id": integrationID, "channel_id": channelID}
		out, err := c.postJSON(ctx, c.endpoint("integrations", "test_message"), payload)
		return out, withFallback(err, "Failed to send test message")
	})
}
