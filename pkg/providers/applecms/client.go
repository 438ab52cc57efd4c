package applecms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nick200000/KatelyaTV/pkg/core"
	"github.com/nick200000/KatelyaTV/pkg/log"
)

const userAgent = "Mozilla/5.0 (compatible; KatelyaTV/1.0)"

// Config holds the settings for one Apple CMS V10 catalogue site.
type Config struct {
	Name    string
	API     string
	Detail  string
	Adult   bool
	Timeout time.Duration
}

func (c *Config) Validate() error {
	if c.API == "" {
		return fmt.Errorf("site api URL is required")
	}
	if _, err := url.Parse(c.API); err != nil {
		return fmt.Errorf("invalid site api URL: %w", err)
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return nil
}

// Client queries a single Apple CMS V10 compatible video catalogue.
// It implements core.Provider.
type Client struct {
	key    string
	config *Config
	client *http.Client
	logger *log.Logger
}

// searchResponse is the upstream JSON envelope. code==1 signals success.
type searchResponse struct {
	Code int        `json:"code"`
	Msg  string     `json:"msg"`
	List []vodEntry `json:"list"`
}

type vodEntry struct {
	VodID      flexString `json:"vod_id"`
	VodName    string     `json:"vod_name"`
	VodPic     string     `json:"vod_pic"`
	VodPlayURL string     `json:"vod_play_url"`
	VodClass   string     `json:"vod_class"`
	VodYear    string     `json:"vod_year"`
	VodContent string     `json:"vod_content"`
	TypeName   string     `json:"type_name"`
}

// flexString tolerates APIs that encode vod_id as either a JSON number
// or a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		s = ""
	}
	*f = flexString(s)
	return nil
}

func New(key string, cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("site config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		key:    key,
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: log.ForService(key),
	}, nil
}

func (c *Client) Key() string {
	return c.key
}

func (c *Client) Name() string {
	if c.config.Name != "" {
		return c.config.Name
	}
	return c.key
}

func (c *Client) Adult() bool {
	return c.config.Adult
}

// Search queries the catalogue with ac=videolist&wd=<query> and converts
// the vod entries into search results.
func (c *Client) Search(ctx context.Context, query string) ([]core.SearchResult, error) {
	searchURL, err := c.buildSearchURL(query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warnf("failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if parsed.Code != 1 && len(parsed.List) == 0 {
		c.logger.Debugf("upstream returned code=%d msg=%q", parsed.Code, parsed.Msg)
		return []core.SearchResult{}, nil
	}

	results := make([]core.SearchResult, 0, len(parsed.List))
	for _, entry := range parsed.List {
		results = append(results, c.convertEntry(entry))
	}

	c.logger.Debugf("query %q returned %d results", query, len(results))
	return results, nil
}

func (c *Client) buildSearchURL(query string) (string, error) {
	u, err := url.Parse(c.config.API)
	if err != nil {
		return "", fmt.Errorf("parsing api URL: %w", err)
	}

	q := u.Query()
	q.Set("ac", "videolist")
	q.Set("wd", query)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) convertEntry(entry vodEntry) core.SearchResult {
	return core.SearchResult{
		ID:         string(entry.VodID),
		Title:      strings.TrimSpace(entry.VodName),
		Poster:     entry.VodPic,
		Episodes:   parseEpisodes(entry.VodPlayURL),
		Source:     c.key,
		SourceName: c.Name(),
		Class:      entry.VodClass,
		Year:       entry.VodYear,
		Desc:       entry.VodContent,
		TypeName:   entry.TypeName,
	}
}

// parseEpisodes extracts playable URLs from a vod_play_url field.
// The field packs play sources separated by "$$$"; within a source,
// episodes are separated by "#" and each episode is "name$url".
// The first source containing usable http(s) URLs wins.
func parseEpisodes(playURL string) []string {
	if playURL == "" {
		return nil
	}

	for _, source := range strings.Split(playURL, "$$$") {
		var episodes []string
		for _, ep := range strings.Split(source, "#") {
			parts := strings.Split(ep, "$")
			// URL sits after the last "$"; bare URLs have no name prefix.
			candidate := parts[len(parts)-1]
			if strings.HasPrefix(candidate, "http://") || strings.HasPrefix(candidate, "https://") {
				episodes = append(episodes, candidate)
			}
		}
		if len(episodes) > 0 {
			return episodes
		}
	}

	return nil
}

func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
