package constants

import "time"

var RapidAPIConfig = struct {
	KeyHeader  string
	HostHeader string
	UserParam  string
}{
	KeyHeader:  "x-rapidapi-key",
	HostHeader: "x-rapidapi-host",
	UserParam:  "username",
}

var AnthropicConfig = struct {
	Version      string
	MessagesPath string
	DefaultModel string
}{
	Version:      "2023-06-01",
	MessagesPath: "/v1/messages",
	DefaultModel: "claude-sonnet-4-20250514",
}

var ChatDefaults = struct {
	OpenAIModel string
	GeminiModel string
}{
	OpenAIModel: "gpt-4.1",
	GeminiModel: "gemini-2.5-flash",
}

var ScrapeTool = struct {
	Name           string
	Description    string
	URLParam       string
	URLDescription string
}{
	Name:           "scrape_linkedin_profile",
	Description:    "Scrape a LinkedIn profile to get detailed information about a person's professional background, experience, education, and skills.",
	URLParam:       "linkedin_url",
	URLDescription: "The LinkedIn profile URL to scrape (e.g., https://linkedin.com/in/username)",
}

var ChatReplies = struct {
	NoText        string
	ScrapeSuccess string
	ToolFailure   string
}{
	NoText:        "I received your message but had trouble generating a response.",
	ScrapeSuccess: "Successfully scraped the LinkedIn profile!",
	ToolFailure:   "I tried to scrape that LinkedIn profile, but encountered an error: %s",
}

var RedisConfig = struct {
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PingTimeout  time.Duration
	PoolSize     int
}{
	DialTimeout:  5 * time.Second,
	ReadTimeout:  3 * time.Second,
	WriteTimeout: 3 * time.Second,
	PingTimeout:  5 * time.Second,
	PoolSize:     10,
}

var ServerConfig = struct {
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	ReadyProbeTimeout time.Duration
	BuildTimeout      time.Duration
	MaxBodyBytes      int64
}{
	ReadHeaderTimeout: 10 * time.Second,
	ShutdownTimeout:   10 * time.Second,
	ReadyProbeTimeout: 2 * time.Second,
	BuildTimeout:      30 * time.Second,
	MaxBodyBytes:      1 << 20,
}

var LogLimits = struct {
	BodyPreview int
}{
	BodyPreview: 300,
}
