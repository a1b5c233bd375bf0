package server

import (
	"bytes"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gurubase/gurubase-cli/internal"
)

// respond writes a catalog result: the value, null, the error shape with its
// status, or a redirect.
func respond[T any](c *gin.Context, r internal.Result[T]) {
	switch r.Outcome() {
	case internal.OutcomeOK:
		c.JSON(http.StatusOK, r.Value)
	case internal.OutcomeRedirect:
		c.Redirect(http.StatusFound, r.RedirectTo)
	case internal.OutcomeFailed:
		c.JSON(failureStatus(r.Err), r.Err)
	default:
		c.JSON(http.StatusOK, nil)
	}
}

func failureStatus(e *internal.ActionError) int {
	if e != nil && e.Status >= 400 && e.Status < 600 {
		return e.Status
	}
	return http.StatusBadGateway
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, internal.ActionError{Error: true, Message: msg, Status: http.StatusBadRequest})
}

// bind decodes a JSON body into dst, answering 400 on failure.
func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "Invalid request body")
		return false
	}
	return true
}

// formFromRequest copies a multipart request into a FormData for the backend.
// Fields and files are forwarded in name order.
func formFromRequest(c *gin.Context) (*internal.FormData, error) {
	mf, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	form := internal.NewFormData()
	for _, name := range sortedKeys(mf.Value) {
		for _, v := range mf.Value[name] {
			form.Set(name, v)
		}
	}
	for _, field := range sortedKeys(mf.File) {
		for _, fh := range mf.File[field] {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			data, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				return nil, err
			}
			form.AddFile(field, fh.Filename, bytes.NewReader(data))
		}
	}
	return form, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type idsBody struct {
	IDs []string `json:"ids"`
}

type urlBody struct {
	URL string `json:"url"`
}

func (s *Server) registerActions(api *gin.RouterGroup) {
	cat := s.catalog

	api.GET("/me", func(c *gin.Context) {
		respond(c, cat.CurrentUserData(c.Request.Context()))
	})
	api.GET("/stream-token", func(c *gin.Context) {
		token := cat.AuthTokenForStream(c.Request.Context())
		if token == "" {
			c.JSON(http.StatusOK, gin.H{"token": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	})

	// Gurus and questions.
	api.GET("/gurus", func(c *gin.Context) {
		respond(c, cat.GuruTypes(c.Request.Context()))
	})
	api.POST("/gurus", func(c *gin.Context) {
		form, err := formFromRequest(c)
		if err != nil {
			badRequest(c, "Invalid form data")
			return
		}
		respond(c, cat.CreateGuru(c.Request.Context(), form))
	})
	api.GET("/gurus/:guru", func(c *gin.Context) {
		respond(c, cat.GuruType(c.Request.Context(), c.Param("guru")))
	})
	api.PUT("/gurus/:guru", func(c *gin.Context) {
		form, err := formFromRequest(c)
		if err != nil {
			badRequest(c, "Invalid form data")
			return
		}
		respond(c, cat.UpdateGuru(c.Request.Context(), c.Param("guru"), form))
	})
	api.DELETE("/gurus/:guru", func(c *gin.Context) {
		respond(c, cat.DeleteGuru(c.Request.Context(), c.Param("guru")))
	})
	api.GET("/gurus/:guru/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ready": cat.CheckGuruReadiness(c.Request.Context(), c.Param("guru"))})
	})
	api.GET("/gurus/:guru/default-questions", func(c *gin.Context) {
		respond(c, cat.DefaultQuestions(c.Request.Context(), c.Param("guru")))
	})
	api.GET("/gurus/:guru/resources", func(c *gin.Context) {
		respond(c, cat.GuruResources(c.Request.Context(), c.Param("guru")))
	})
	api.POST("/gurus/:guru/summary", func(c *gin.Context) {
		var req internal.SummaryRequest
		if !bind(c, &req) {
			return
		}
		respond(c, cat.Summary(c.Request.Context(), c.Param("guru"), req))
	})
	api.GET("/gurus/:guru/questions/:slug", func(c *gin.Context) {
		respond(c, cat.QuestionDetails(c.Request.Context(), c.Param("guru"), c.Param("slug"), c.Query("binge_id"), c.Query("question")))
	})
	api.POST("/gurus/:guru/examples", func(c *gin.Context) {
		var req internal.ExampleQuestionsRequest
		if !bind(c, &req) {
			return
		}
		c.JSON(http.StatusOK, cat.ExampleQuestions(c.Request.Context(), c.Param("guru"), req))
	})
	api.POST("/gurus/:guru/binges", func(c *gin.Context) {
		var body struct {
			RootSlug string `json:"root_slug"`
		}
		if !bind(c, &body) {
			return
		}
		id := cat.CreateBinge(c.Request.Context(), c.Param("guru"), body.RootSlug)
		if id == "" {
			c.JSON(http.StatusOK, gin.H{"id": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	api.GET("/gurus/:guru/binges/:id", func(c *gin.Context) {
		respond(c, cat.BingeData(c.Request.Context(), c.Param("guru"), c.Param("id")))
	})
	api.GET("/binge-history", func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		respond(c, cat.BingeHistory(c.Request.Context(), page, c.Query("query")))
	})
	api.POST("/guru-requests", func(c *gin.Context) {
		var form internal.GuruCreationForm
		if !bind(c, &form) {
			return
		}
		respond(c, cat.SubmitGuruCreationForm(c.Request.Context(), form))
	})

	// Maintained gurus, data sources, widgets.
	api.GET("/my-gurus", func(c *gin.Context) {
		respond(c, cat.MyGurus(c.Request.Context()))
	})
	api.GET("/my-gurus/:guru", func(c *gin.Context) {
		respond(c, cat.MyGuru(c.Request.Context(), c.Param("guru")))
	})
	api.GET("/gurus/:guru/sources", func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		respond(c, cat.GuruDataSources(c.Request.Context(), c.Param("guru"), page))
	})
	api.POST("/gurus/:guru/sources", func(c *gin.Context) {
		form, err := formFromRequest(c)
		if err != nil {
			badRequest(c, "Invalid form data")
			return
		}
		respond(c, cat.AddGuruSources(c.Request.Context(), c.Param("guru"), form))
	})
	api.DELETE("/gurus/:guru/sources", func(c *gin.Context) {
		var body idsBody
		if !bind(c, &body) {
			return
		}
		respond(c, cat.DeleteGuruSources(c.Request.Context(), c.Param("guru"), body.IDs))
	})
	api.POST("/gurus/:guru/sources/reindex", func(c *gin.Context) {
		var body idsBody
		if !bind(c, &body) {
			return
		}
		respond(c, cat.ReindexGuruSources(c.Request.Context(), c.Param("guru"), body.IDs))
	})
	api.POST("/gurus/:guru/sources/privacy", func(c *gin.Context) {
		var payload interface{}
		if !bind(c, &payload) {
			return
		}
		respond(c, cat.UpdateDataSourcesPrivacy(c.Request.Context(), c.Param("guru"), payload))
	})
	api.POST("/gurus/:guru/widget-ids", func(c *gin.Context) {
		var body struct {
			DomainURL string `json:"domain_url"`
		}
		if !bind(c, &body) {
			return
		}
		respond(c, cat.CreateWidgetID(c.Request.Context(), c.Param("guru"), body.DomainURL))
	})
	api.DELETE("/gurus/:guru/widget-ids", func(c *gin.Context) {
		var body struct {
			WidgetID string `json:"widget_id"`
		}
		if !bind(c, &body) {
			return
		}
		respond(c, cat.DeleteWidgetID(c.Request.Context(), c.Param("guru"), body.WidgetID))
	})

	// Integrations.
	api.GET("/gurus/:guru/integrations", func(c *gin.Context) {
		respond(c, cat.IntegrationsList(c.Request.Context(), c.Param("guru")))
	})
	api.GET("/gurus/:guru/integrations/:type", func(c *gin.Context) {
		respond(c, cat.IntegrationDetails(c.Request.Context(), c.Param("guru"), c.Param("type")))
	})
	api.POST("/gurus/:guru/integrations/:type", func(c *gin.Context) {
		var data internal.SelfhostedIntegration
		if !bind(c, &data) {
			return
		}
		respond(c, cat.CreateSelfhostedIntegration(c.Request.Context(), c.Param("guru"), c.Param("type"), data))
	})
	api.DELETE("/gurus/:guru/integrations/:type", func(c *gin.Context) {
		respond(c, cat.DeleteIntegration(c.Request.Context(), c.Param("guru"), c.Param("type")))
	})
	api.GET("/gurus/:guru/integrations/:type/channels", func(c *gin.Context) {
		respond(c, cat.IntegrationChannels(c.Request.Context(), c.Param("guru"), c.Param("type")))
	})
	api.POST("/gurus/:guru/integrations/:type/channels", func(c *gin.Context) {
		var body struct {
			Channels interface{} `json:"channels"`
		}
		if !bind(c, &body) {
			return
		}
		respond(c, cat.SaveIntegrationChannels(c.Request.Context(), c.Param("guru"), c.Param("type"), body.Channels))
	})
	api.GET("/integrations/create", func(c *gin.Context) {
		respond(c, cat.CreateIntegration(c.Request.Context(), c.Query("code"), c.Query("state")))
	})
	api.POST("/integrations/test-message", func(c *gin.Context) {
		var body struct {
			IntegrationID string `json:"integration_id"`
			ChannelID     string `json:"channel_id"`
		}
		if !bind(c, &body) {
			return
		}
		respond(c, cat.SendIntegrationTestMessage(c.Request.Context(), body.IntegrationID, body.ChannelID))
	})

	// Account.
	api.GET("/api-keys", func(c *gin.Context) {
		respond(c, cat.APIKeys(c.Request.Context()))
	})
	api.POST("/api-keys", func(c *gin.Context) {
		var body struct {
			Name string `json:"name"`
		}
		if !bind(c, &body) {
			return
		}
		respond(c, cat.CreateAPIKey(c.Request.Context(), body.Name))
	})
	api.DELETE("/api-keys", func(c *gin.Context) {
		var body struct {
			ID string `json:"id"`
		}
		if !bind(c, &body) {
			return
		}
		respond(c, cat.DeleteAPIKey(c.Request.Context(), body.ID))
	})
	api.GET("/settings", func(c *gin.Context) {
		respond(c, cat.Settings(c.Request.Context()))
	})
	api.PUT("/settings", func(c *gin.Context) {
		var update internal.SettingsUpdate
		if !bind(c, &update) {
			return
		}
		respond(c, cat.UpdateSettings(c.Request.Context(), update))
	})
	api.POST("/ollama/validate", func(c *gin.Context) {
		var body urlBody
		if !bind(c, &body) {
			return
		}
		respond(c, cat.ValidateOllamaURL(c.Request.Context(), body.URL))
	})

	// Source fetchers and crawling.
	api.POST("/sitemap/parse", func(c *gin.Context) {
		var body struct {
			SitemapURL string `json:"sitemap_url"`
		}
		if !bind(c, &body) {
			return
		}
		respond(c, cat.ParseSitemapURLs(c.Request.Context(), body.SitemapURL))
	})
	api.GET("/sitemap/*slug", func(c *gin.Context) {
		r := cat.SitemapData(c.Request.Context(), strings.TrimPrefix(c.Param("slug"), "/"))
		if text, ok := r.Unwrap(); ok {
			c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
			return
		}
		respond(c, r)
	})
	api.POST("/jira/:id/issues", func(c *gin.Context) {
		var body struct {
			JQL string `json:"jql"`
		}
		if !bind(c, &body) {
			return
		}
		respond(c, cat.JiraIssues(c.Request.Context(), c.Param("id"), body.JQL))
	})
	api.POST("/confluence/:id/pages", func(c *gin.Context) {
		var body struct {
			Query string `json:"query"`
		}
		if !bind(c, &body) {
			return
		}
		respond(c, cat.ConfluencePages(c.Request.Context(), c.Param("id"), body.Query))
	})
	api.GET("/zendesk/:id/tickets", func(c *gin.Context) {
		respond(c, cat.ZendeskTickets(c.Request.Context(), c.Param("id")))
	})
	api.GET("/zendesk/:id/articles", func(c *gin.Context) {
		respond(c, cat.ZendeskArticles(c.Request.Context(), c.Param("id")))
	})
	api.POST("/gurus/:guru/crawl", func(c *gin.Context) {
		var body urlBody
		if !bind(c, &body) {
			return
		}
		respond(c, cat.StartCrawl(c.Request.Context(), c.Param("guru"), body.URL))
	})
	api.POST("/crawl/:id/stop", func(c *gin.Context) {
		respond(c, cat.StopCrawl(c.Request.Context(), c.Param("id")))
	})
	api.GET("/crawl/:id/status", func(c *gin.Context) {
		respond(c, cat.CrawlStatus(c.Request.Context(), c.Param("id")))
	})
	api.POST("/youtube/playlist", func(c *gin.Context) {
		var body urlBody
		if !bind(c, &body) {
			return
		}
		respond(c, cat.YoutubePlaylist(c.Request.Context(), body.URL))
	})
	api.POST("/youtube/channel", func(c *gin.Context) {
		var body urlBody
		if !bind(c, &body) {
			return
		}
		respond(c, cat.YoutubeChannel(c.Request.Context(), body.URL))
	})
}
