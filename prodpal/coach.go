package prodpal

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/lmittmann/tint"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
	"log/slog"
	"strings"
	"time"
)

const (
	coachRequestKindStatus = "status_feedback"
	coachRequestKindJobs   = "job_analysis"
)

// coachStatusFallback is sent as manager feedback when the completion
// request fails.
const coachStatusFallback = "I'm having trouble connecting to my AI services. " +
	"Let's check in again later, but in the meantime, remember to take breaks " +
	"when needed and stay focused on your priorities."

// coachJobsFallback is sent as the application analysis when the completion
// request fails.
const coachJobsFallback = "Great job applying to these positions! Keep " +
	"tracking your applications and following up when appropriate. Remember " +
	"that job searching is a numbers game - persistence is key to finding " +
	"the right opportunity."

// CoachClient is the subset of the OpenAI client used by the coach,
// here to enable mocking in tests.
type CoachClient interface {
	CreateChatCompletion(
		ctx context.Context,
		request openai.ChatCompletionRequest,
	) (openai.ChatCompletionResponse, error)
}

// Coach generates the bot's conversational responses (manager feedback on
// check-ins, job application analysis) via the OpenAI chat completion API.
// Requests are rate-limited and logged to the database.
type Coach struct {
	config         *CoachConfig
	client         CoachClient
	logger         *slog.Logger
	requestLimiter *rate.Limiter
	p              *ProdPal
}

func newCoach(p *ProdPal, config *CoachConfig) *Coach {
	clientCfg := openai.DefaultConfig(config.Token)
	if p.config.HTTPClient != nil {
		clientCfg.HTTPClient = p.config.HTTPClient
	}
	c := &Coach{
		config: config,
		client: openai.NewClientWithConfig(clientCfg),
		requestLimiter: rate.NewLimiter(
			rate.Limit(config.MaxRequestsPerSecond),
			1,
		),
		p: p,
	}
	return c
}

// waitOnRequestLimiter blocks until the request limiter allows another
// API request, or the context is canceled.
func (c *Coach) waitOnRequestLimiter(ctx context.Context) error {
	if c.requestLimiter == nil {
		return nil
	}
	if err := c.requestLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("error waiting on request limiter: %w", err)
	}
	return nil
}

// StatusFeedback returns a supportive manager-style response to the given
// status update. On any error, a canned fallback response is returned so
// the check-in flow always has something to post.
func (c *Coach) StatusFeedback(ctx context.Context, userStatus string) string {
	runtimeCfg := c.p.RuntimeConfig()
	content, err := c.chatCompletion(
		ctx,
		coachRequestKindStatus,
		runtimeCfg.CoachStatusInstructions,
		fmt.Sprintf("The user has shared their current status: %q", userStatus),
		runtimeCfg.CoachMaxTokens,
	)
	if err != nil {
		c.logger.ErrorContext(ctx, "error getting status feedback", tint.Err(err))
		return coachStatusFallback
	}
	return content
}

// JobAnalysis returns an analysis of the day's job applications. On any
// error, a canned fallback response is returned.
func (c *Coach) JobAnalysis(ctx context.Context, jobs []string) string {
	runtimeCfg := c.p.RuntimeConfig()
	content, err := c.chatCompletion(
		ctx,
		coachRequestKindJobs,
		runtimeCfg.CoachJobInstructions,
		strings.Join(jobs, "\n"),
		runtimeCfg.CoachMaxTokens,
	)
	if err != nil {
		c.logger.ErrorContext(ctx, "error getting job analysis", tint.Err(err))
		return coachJobsFallback
	}
	return content
}

// chatCompletion executes a single chat completion request, recording the
// request and response (or error) as a CoachLog row.
func (c *Coach) chatCompletion(
	ctx context.Context,
	kind string,
	instructions string,
	userContent string,
	maxTokens int,
) (string, error) {
	logger, ok := ContextLogger(ctx)
	if !ok {
		logger = c.logger
	}

	if err := c.waitOnRequestLimiter(ctx); err != nil {
		return "", err
	}

	req := openai.ChatCompletionRequest{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: instructions,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userContent,
			},
		},
	}
	if maxTokens > 0 {
		req.MaxTokens = maxTokens
	}

	apiLog := &CoachLog{Kind: kind}
	reqData, err := json.Marshal(req)
	if err != nil {
		logger.ErrorContext(ctx, "error marshaling request", tint.Err(err))
	}
	apiLog.RequestBody = string(reqData)

	apiLog.RequestStarted = time.Now().UnixMilli()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	apiLog.RequestEnded = time.Now().UnixMilli()

	if err != nil {
		apiLog.Error = err.Error()
	} else {
		respData, marshalErr := json.Marshal(resp)
		if marshalErr != nil {
			logger.ErrorContext(ctx, "error marshaling response", tint.Err(marshalErr))
		}
		apiLog.ResponseBody = string(respData)
	}

	if c.p.writeDB != nil {
		if _, createErr := c.p.writeDB.Create(ctx, apiLog); createErr != nil {
			logger.ErrorContext(
				ctx,
				"error saving coach request log",
				tint.Err(createErr),
			)
		}
	}

	if err != nil {
		return "", fmt.Errorf("chat completion error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned (id: %s)", resp.ID)
	}
	return resp.Choices[0].Message.Content, nil
}

// CoachLog records a single chat completion API request and response.
type CoachLog struct {
	ModelUintID
	ModelUnixTime
	Kind           string `json:"kind" gorm:"index"`
	RequestStarted int64  `json:"request_started"`
	RequestEnded   int64  `json:"request_ended"`
	RequestBody    string `json:"request_body"`
	ResponseBody   string `json:"response_body"`
	Error          string `json:"error"`
}

func (c CoachLog) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("id", uint64(c.ID)),
		slog.String("kind", c.Kind),
		slog.Int64("request_started", c.RequestStarted),
		slog.Int64("request_ended", c.RequestEnded),
		slog.String("error", c.Error),
	)
}
