package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/opengw/llmgateway/common"
	"github.com/opengw/llmgateway/common/ctxkey"
	"github.com/opengw/llmgateway/common/helper"
	"github.com/opengw/llmgateway/internal/analytics"
	"github.com/opengw/llmgateway/internal/apierrors"
	"github.com/opengw/llmgateway/internal/baggage"
	"github.com/opengw/llmgateway/internal/batcher"
	"github.com/opengw/llmgateway/internal/guardrail"
	"github.com/opengw/llmgateway/internal/inference"
	"github.com/opengw/llmgateway/internal/middleware"
	"github.com/opengw/llmgateway/internal/model"
	"github.com/opengw/llmgateway/internal/provider"
	"github.com/opengw/llmgateway/internal/router"
)

// Dependencies bundles the shared, process-wide components the dispatch
// stage needs to resolve a model, run guardrails, and record the call, plus
// the two background batchers the Egress/Dispatch stages feed.
type Dependencies struct {
	Models        *model.Store
	Router        *router.Router
	Guardrails    *guardrail.Orchestrator
	Profiles      func() map[string]*guardrail.Profile
	Inference     *batcher.Batcher[inference.Record]
	AnalyticsBus  *batcher.Batcher[analytics.Record]
}

// dispatchBody is the minimal JSON shape the dispatch stage itself needs,
// independent of whatever provider-specific fields the rest of the body
// carries (those pass through to the provider untouched).
type dispatchBody struct {
	Stream      bool              `json:"stream"`
	Credentials map[string]string `json:"credentials"`
}

// Dispatch routes the already-authenticated, already-rate-limited request
// to its resolved model, sandwiched between input and output guardrail
// evaluation, and records an InferenceRecord. It is the single handler
// behind every OpenAI-shaped endpoint, dispatching by capability derived
// from the request path.
func Dispatch(deps *Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		cap, ok := capabilityForPath(c.Request.URL.Path)
		if !ok {
			abortGateway(c, apierrors.New(apierrors.BadRequest, "unsupported endpoint"))
			return
		}

		modelName := c.GetString(ctxkey.RequestModel)
		if modelName == "" {
			abortGateway(c, apierrors.New(apierrors.ModelNotFound, "no model resolved for request"))
			return
		}

		body, err := common.GetRequestBody(c)
		if err != nil {
			abortGateway(c, apierrors.Wrap(apierrors.BadRequest, err, "failed to read request body"))
			return
		}

		var peek dispatchBody
		_ = json.Unmarshal(body, &peek)

		start := time.Now()
		entry := deps.Models.Get(modelName)
		profile := guardrailProfileFor(deps, entry)

		inputOutcome, err := deps.Guardrails.EvaluateInput(c.Request.Context(), profile, extractScanText(body))
		if err != nil {
			abortGateway(c, apierrors.Wrap(apierrors.InternalError, err, "guardrail input evaluation failed"))
			return
		}
		if inputOutcome.Flagged {
			blockRequest(c, deps, modelName, cap, start, inputOutcome, guardrail.DirectionInput)
			return
		}

		bundle := baggage.FromContext(c.Request.Context())
		req := provider.Request{
			Model:       modelName,
			Capability:  cap,
			Credentials: peek.Credentials,
			Body:        body,
			Streaming:   peek.Stream,
			Headers:     bundle.Headers(),
		}

		result, err := deps.Router.Route(c.Request.Context(), modelName, req)
		if err != nil {
			abortGateway(c, routeErrorToGatewayError(err))
			return
		}

		outputText := ""
		if !result.IsStreaming() {
			outputText = extractScanText(result.Body)
		}
		outputOutcome, err := deps.Guardrails.EvaluateOutput(c.Request.Context(), profile, outputText)
		if err != nil {
			abortGateway(c, apierrors.Wrap(apierrors.InternalError, err, "guardrail output evaluation failed"))
			return
		}
		if outputOutcome.Flagged {
			if result.Stream != nil {
				_ = result.Stream.Close()
			}
			blockRequest(c, deps, modelName, cap, start, outputOutcome, guardrail.DirectionOutput)
			return
		}

		inferenceID := helper.GenRequestID()
		c.Header(ctxkey.HeaderInferenceID, inferenceID)
		c.Header(ctxkey.HeaderModelLatencyMS, strconv.FormatInt(result.ModelLatencyMS, 10))

		writeResult(c, result)

		enqueueInferenceRecord(deps, inferenceRecordArgs{
			id:           inferenceID,
			modelName:    modelName,
			cap:          cap,
			start:        start,
			inputTokens:  result.InputTokens,
			outputTokens: result.OutputTokens,
			finishReason: result.FinishReason,
			output:       outputText,
			inputText:    extractScanText(body),
		})
	}
}

func guardrailProfileFor(deps *Dependencies, entry *model.Entry) *guardrail.Profile {
	if entry == nil || entry.GuardrailProfile == "" {
		return nil
	}
	return deps.Profiles()[entry.GuardrailProfile]
}

// writeResult copies a provider Result onto the gin response, streaming the
// body verbatim when the provider returned a live stream.
func writeResult(c *gin.Context, result provider.Result) {
	for k, v := range result.Headers {
		c.Header(k, v)
	}
	status := result.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	if result.Stream != nil {
		defer result.Stream.Close()
		c.Status(status)
		c.Writer.Flush()
		_, _ = io.Copy(c.Writer, result.Stream)
		return
	}

	c.Data(status, "application/json", result.Body)
}

func blockRequest(c *gin.Context, deps *Dependencies, modelName string, cap model.Capability, start time.Time, outcome guardrail.Outcome, direction guardrail.Direction) {
	if rec := middleware.RecordFrom(c); rec != nil {
		rec.Mu.Lock()
		rec.Blocked = true
		rec.BlockRule = "guardrail:" + string(direction)
		rec.Mu.Unlock()
	}

	enqueueInferenceRecord(deps, inferenceRecordArgs{
		id:        helper.GenRequestID(),
		modelName: modelName,
		cap:       cap,
		start:     start,
		guardrail: &inference.GuardrailScanSummary{
			Flagged:  true,
			MaxScore: outcome.Result.MaxScore(),
			Action:   "block",
		},
	})

	c.Header("x-block-reason", "guardrail "+string(direction)+" flagged")
	abortGateway(c, apierrors.New(apierrors.Blocked, "request blocked by guardrail"))
}

type inferenceRecordArgs struct {
	id           string
	modelName    string
	cap          model.Capability
	start        time.Time
	inputTokens  int
	outputTokens int
	finishReason string
	inputText    string
	output       string
	guardrail    *inference.GuardrailScanSummary
}

func enqueueInferenceRecord(deps *Dependencies, args inferenceRecordArgs) {
	if deps.Inference == nil {
		return
	}
	deps.Inference.Enqueue(inference.Record{
		ID:           args.id,
		EndpointType: endpointTypeForCapability(args.cap),
		ModelName:    args.modelName,
		Input:        args.inputText,
		Output:       args.output,
		InputTokens:  args.inputTokens,
		OutputTokens: args.outputTokens,
		LatencyMS:    helper.CalcElapsedTime(args.start),
		FinishReason: args.finishReason,
		Guardrail:    args.guardrail,
		Timestamp:    args.start,
	})
}

func routeErrorToGatewayError(err error) *apierrors.GatewayError {
	switch {
	case errors.Is(err, router.ErrModelChainExhausted):
		return apierrors.Wrap(apierrors.ModelChainExhausted, err, "every model in the fallback chain failed")
	case errors.Is(err, router.ErrCapabilityMismatch):
		return apierrors.Wrap(apierrors.CapabilityMismatch, err, "model does not support this endpoint")
	case errors.Is(err, router.ErrModelNotFound):
		return apierrors.Wrap(apierrors.ModelNotFound, err, "model not found")
	default:
		return apierrors.Wrap(apierrors.ProviderError, err, "upstream call failed")
	}
}

func abortGateway(c *gin.Context, ge *apierrors.GatewayError) {
	c.JSON(ge.Status(), gin.H{"error": gin.H{"message": ge.Error(), "type": "gateway_error", "code": ge.Status()}})
	c.Abort()
}

// scanTextShape covers the handful of JSON shapes request/response bodies
// take across the supported endpoints (chat messages, completion prompt,
// embedding input) so the guardrail stage has best-effort plain text to
// scan without needing an endpoint-specific parser.
type scanTextShape struct {
	Prompt   string `json:"prompt"`
	Input    string `json:"input"`
	Messages []struct {
		Content string `json:"content"`
	} `json:"messages"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
}

func extractScanText(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var shape scanTextShape
	if err := json.Unmarshal(body, &shape); err != nil {
		return ""
	}
	text := shape.Prompt + shape.Input
	for _, m := range shape.Messages {
		text += " " + m.Content
	}
	for _, c := range shape.Choices {
		text += " " + c.Message.Content + c.Text
	}
	return text
}
