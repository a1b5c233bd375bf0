package internal

import (
	"fmt"
	"strings"
)

// Document is an untyped backend payload (object or array) kept as decoded JSON.
type Document = interface{}

// Object is a decoded JSON object.
type Object = map[string]interface{}

// GuruType is a guru as listed by the backend. Slugs compare case-insensitively.
type GuruType struct {
	ID              int    `json:"id,omitempty" yaml:"id,omitempty"`
	Slug            string `json:"slug" yaml:"slug"`
	Name            string `json:"name" yaml:"name"`
	IconURL         string `json:"icon_url,omitempty" yaml:"icon_url,omitempty"`
	DomainKnowledge string `json:"domain_knowledge,omitempty" yaml:"domain_knowledge,omitempty"`
	Ready           *bool  `json:"ready,omitempty" yaml:"ready,omitempty"`
}

// SlugEquals compares slugs case-insensitively.
func (g GuruType) SlugEquals(slug string) bool {
	return g.Slug != "" && strings.EqualFold(g.Slug, slug)
}

// SummaryRequest is the body of an ask.
type SummaryRequest struct {
	Question           string `json:"question"`
	BingeID            string `json:"binge_id,omitempty"`
	ParentQuestionSlug string `json:"parent_question_slug,omitempty"`
}

// Summary is the backend's answer to an ask.
type Summary struct {
	Question         string `json:"question" yaml:"question"`
	QuestionSlug     string `json:"question_slug" yaml:"question_slug"`
	Description      string `json:"description,omitempty" yaml:"description,omitempty"`
	UserQuestion     string `json:"user_question,omitempty" yaml:"user_question,omitempty"`
	ValidQuestion    bool   `json:"valid_question" yaml:"valid_question"`
	CompletionTokens int    `json:"completion_tokens,omitempty" yaml:"completion_tokens,omitempty"`
	PromptTokens     int    `json:"prompt_tokens,omitempty" yaml:"prompt_tokens,omitempty"`
	JWT              string `json:"jwt,omitempty" yaml:"-"`
}

// DefaultQuestion is one of a guru's featured questions.
type DefaultQuestion struct {
	Slug        string `json:"slug" yaml:"slug"`
	Question    string `json:"question" yaml:"question"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Reference is a source cited by an answer.
type Reference struct {
	Title    string `json:"title" yaml:"title"`
	Link     string `json:"link" yaml:"link"`
	Icon     string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Question string `json:"question,omitempty" yaml:"question,omitempty"`
}

// QuestionDetail is an answered question.
type QuestionDetail struct {
	Slug              string      `json:"slug" yaml:"slug"`
	ParentSlug        string      `json:"parent_slug,omitempty" yaml:"parent_slug,omitempty"`
	Question          string      `json:"question" yaml:"question"`
	Content           string      `json:"content" yaml:"content"`
	Description       string      `json:"description,omitempty" yaml:"description,omitempty"`
	References        []Reference `json:"references,omitempty" yaml:"references,omitempty"`
	TrustScore        int         `json:"trust_score,omitempty" yaml:"trust_score,omitempty"`
	DateUpdated       string      `json:"date_updated,omitempty" yaml:"date_updated,omitempty"`
	FollowUpQuestions Document    `json:"follow_up_questions,omitempty" yaml:"follow_up_questions,omitempty"`
	Source            string      `json:"source,omitempty" yaml:"source,omitempty"`
	Msg               string      `json:"msg,omitempty" yaml:"msg,omitempty"`
}

// ExampleQuestionsRequest asks for follow-up suggestions.
type ExampleQuestionsRequest struct {
	BingeID      string `json:"binge_id"`
	QuestionSlug string `json:"question_slug"`
	QuestionText string `json:"question_text"`
}

// GuruCreationForm is the "request a guru" form.
type GuruCreationForm struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	GithubRepo string `json:"github_repo"`
	DocsURL    string `json:"docs_url"`
	UseCase    string `json:"use_case"`
	Source     string `json:"source"`
}

// SelfhostedIntegration carries the credentials of a manually configured
// integration. Only the fields relevant to the integration type are set.
type SelfhostedIntegration struct {
	WorkspaceName       string `json:"workspace_name,omitempty"`
	ExternalID          string `json:"external_id,omitempty"`
	AccessToken         string `json:"access_token,omitempty"`
	ClientID            string `json:"client_id,omitempty"`
	InstallationID      string `json:"installation_id,omitempty"`
	PrivateKey          string `json:"private_key,omitempty"`
	GithubSecret        string `json:"github_secret,omitempty"`
	JiraDomain          string `json:"jira_domain,omitempty"`
	JiraUserEmail       string `json:"jira_user_email,omitempty"`
	JiraAPIKey          string `json:"jira_api_key,omitempty"`
	ConfluenceDomain    string `json:"confluence_domain,omitempty"`
	ConfluenceUserEmail string `json:"confluence_user_email,omitempty"`
	ConfluenceAPIToken  string `json:"confluence_api_token,omitempty"`
	ZendeskDomain       string `json:"zendesk_domain,omitempty"`
	ZendeskUserEmail    string `json:"zendesk_user_email,omitempty"`
	ZendeskAPIToken     string `json:"zendesk_api_token,omitempty"`
}

// SettingsUpdate is the body of a settings change. The *Written flags tell the
// backend a secret was typed in rather than left masked.
type SettingsUpdate struct {
	OpenAIAPIKey           string `json:"openai_api_key"`
	FirecrawlAPIKey        string `json:"firecrawl_api_key"`
	ScrapeType             string `json:"scrape_type"`
	YoutubeAPIKey          string `json:"youtube_api_key"`
	OpenAIAPIKeyWritten    bool   `json:"openai_api_key_written"`
	FirecrawlAPIKeyWritten bool   `json:"firecrawl_api_key_written"`
	YoutubeAPIKeyWritten   bool   `json:"youtube_api_key_written"`
	OllamaURL              string `json:"ollama_url"`
	OllamaEmbeddingModel   string `json:"ollama_embedding_model"`
	OllamaBaseModel        string `json:"ollama_base_model"`
	AIModelProvider        string `json:"ai_model_provider"`
}

// Ack reports the outcome of a call whose response body is not worth keeping.
type Ack struct {
	Success bool   `json:"success" yaml:"success"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// String renders a guru for plain-text listings.
func (g GuruType) String() string {
	if g.Name == "" {
		return g.Slug
	}
	return fmt.Sprintf("%s (%s)", g.Name, g.Slug)
}
