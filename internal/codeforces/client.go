package codeforces

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Ntropy86/Codeforces-Calendar/internal/potd_errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 10 * time.Second
	catalogTimeout   = 60 * time.Second
	methodProblemset = "problemset.problems"
	methodUserStatus = "user.status"
	methodUserInfo   = "user.info"
	statusOK         = "OK"
	statusFailed     = "FAILED"
	limiterBurst     = 1
)

// Client talks to the public codeforces api. All calls share one limiter,
// codeforces answers "Call limit exceeded" above roughly one call per 2 seconds.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logrus.Entry
}

func NewClient(baseURL string, requestsPerSecond float64) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w, cannot parse codeforces api url %s, %w", potd_errors.ErrInvalidRequest, baseURL, err)
	}

	return &Client{
		baseURL:    parsed,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), limiterBurst),
		logger: logrus.WithFields(logrus.Fields{
			"from": "codeforces_client",
		}),
	}, nil
}

// ProblemsetProblems returns the whole catalog, newest problems first.
func (c *Client) ProblemsetProblems(ctx context.Context) ([]Problem, error) {
	var result problemsetResult
	if err := c.call(ctx, methodProblemset, nil, catalogTimeout, &result); err != nil {
		return nil, err
	}
	return result.Problems, nil
}

// UserStatus returns submissions of a handle, newest first.
// from is 1 based (set it to 1 to get the latest submission).
func (c *Client) UserStatus(ctx context.Context, handle string, from, count int) ([]Submission, error) {
	params := url.Values{}
	params.Add("handle", handle)
	params.Add("from", strconv.Itoa(from))
	params.Add("count", strconv.Itoa(count))

	var result []Submission
	if err := c.call(ctx, methodUserStatus, params, defaultTimeout, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) UserInfo(ctx context.Context, handle string) (User, error) {
	params := url.Values{}
	params.Add("handles", handle)

	var result []User
	if err := c.call(ctx, methodUserInfo, params, defaultTimeout, &result); err != nil {
		return User{}, err
	}
	if len(result) != 1 {
		err := fmt.Errorf(
			"%w, queried user.info for 1 handle but got %d users",
			potd_errors.ErrUpstreamUnavailable,
			len(result),
		)
		c.logger.Error(err)
		return User{}, err
	}
	return result[0], nil
}

func (c *Client) call(
	ctx context.Context,
	method string,
	params url.Values,
	timeout time.Duration,
	result any,
) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w, rate limiter wait cancelled, %w", potd_errors.ErrUpstreamUnavailable, err)
	}

	endpoint := *c.baseURL
	endpoint.Path = endpoint.Path + "/" + method
	endpoint.RawQuery = params.Encode()

	// create a context to avoid indefinite wait
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		err = fmt.Errorf("%w, failed to create http request with ctx: %w", potd_errors.ErrInternal, err)
		c.logger.Error(err)
		return err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		// Error here could be a timeout from the context or a network issue
		err = potd_errors.WrapUpstreamError(err)
		c.logger.WithField("method", method).Error(err)
		return err
	}
	defer res.Body.Close()
	c.logger.Debugf("recieved response from %v", method)

	// codeforces reports most failures as 400 with a FAILED envelope,
	// so the body is decoded before looking at the status code
	var body struct {
		envelope
		Result json.RawMessage `json:"result"`
	}
	if err = json.NewDecoder(res.Body).Decode(&body); err != nil {
		err = fmt.Errorf(
			"%w, cannot decode %v response (http %d), %w",
			potd_errors.ErrUpstreamUnavailable,
			method,
			res.StatusCode,
			err,
		)
		c.logger.Error(err)
		return err
	}

	if body.Status == statusFailed {
		err = fmt.Errorf(
			"%w, %v returned FAILED status, %s",
			potd_errors.ErrUpstreamUnavailable,
			method,
			body.Comment,
		)
		c.logger.Error(err)
		return err
	} else if body.Status != statusOK || res.StatusCode != http.StatusOK {
		err = fmt.Errorf(
			"%w, %v response status is %q with http status %d",
			potd_errors.ErrUpstreamUnavailable,
			method,
			body.Status,
			res.StatusCode,
		)
		c.logger.Error(err)
		return err
	}

	if err = json.Unmarshal(body.Result, result); err != nil {
		err = fmt.Errorf(
			"%w, cannot decode %v result to %T, %w",
			potd_errors.ErrUpstreamUnavailable,
			method,
			result,
			err,
		)
		c.logger.Error(err)
		return err
	}

	return nil
}
