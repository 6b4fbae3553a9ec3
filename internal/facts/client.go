// Package facts fetches the "useless fact of the day" shown in the morning
// reminder.
package facts

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

var fallback = []string{
	"In Sparta, teachers made slaves get drunk in public to show young men how not to behave.",
	"Tickling was once outlawed in some ancient Eastern countries.",
	"It snowed in the Sahara desert on February 18, 1979.",
	"The National Orchestra of Monaco is larger than its army.",
	"\"Happy Birthday to You\" was under copyright for most of the 20th century.",
	"Australia's first fifty-cent coin contained two dollars' worth of silver.",
	"There are more Barbie dolls in Italy than Canadians in Canada.",
	"A group of flamingos is called a flamboyance.",
	"Octopuses have three hearts.",
}

type Client struct {
	client *resty.Client
	log    *logrus.Entry
}

func New(baseURL string) *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(5 * time.Second).
			SetRetryCount(1),
		log: logrus.WithField("component", "facts"),
	}
}

// Random asks the remote API for a fact.
func (c *Client) Random(ctx context.Context) (string, error) {
	type factResponse struct {
		Text string `json:"text"`
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("language", "en").
		SetResult(&factResponse{}).
		Get("/api/v2/facts/random")
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d %s", resp.StatusCode(), string(resp.Body()))
	}

	text := strings.TrimSpace(resp.Result().(*factResponse).Text)
	if text == "" {
		return "", fmt.Errorf("empty fact")
	}
	return text, nil
}

// OfTheDay never fails: when the API is unavailable a built-in fact picked by
// day of month is used.
func (c *Client) OfTheDay(ctx context.Context, day time.Time) string {
	text, err := c.Random(ctx)
	if err != nil {
		c.log.Warnf("falling back to a built-in fact: %v", err)
		return Fallback(day)
	}
	return text
}

func Fallback(day time.Time) string {
	return fallback[day.Day()%len(fallback)]
}
