package derivative

import (
	"context"
	"encoding/json"
	"log/slog"
)

// TranslateJob describes one translation request.
type TranslateJob struct {
	Input  JobInput  `json:"input"`
	Output JobOutput `json:"output"`
}

// JobInput identifies the source design. URN is the urnified object
// identifier (see Urnify). For compressed (zip) inputs, RootFilename names
// the entry to translate.
type JobInput struct {
	URN           string `json:"urn"`
	CompressedURN bool   `json:"compressedUrn,omitempty"`
	RootFilename  string `json:"rootFilename,omitempty"`
}

// JobOutput lists the requested output formats and their destination region.
type JobOutput struct {
	Destination *JobDestination `json:"destination,omitempty"`
	Formats     []JobFormat     `json:"formats"`
}

// JobDestination pins translation output to a region.
type JobDestination struct {
	Region string `json:"region"`
}

// JobFormat is one requested output format, e.g. {Type: "svf",
// Views: ["2d", "3d"]}.
type JobFormat struct {
	Type     string         `json:"type"`
	Views    []string       `json:"views,omitempty"`
	Advanced map[string]any `json:"advanced,omitempty"`
}

// JobResult is the server's acknowledgement of a submitted job.
type JobResult struct {
	Result       string          `json:"result"`
	URN          string          `json:"urn"`
	AcceptedJobs json.RawMessage `json:"acceptedJobs,omitempty"`
}

// Translate submits a translation job. With force=true the server
// re-translates even when derivatives already exist (x-ads-force header);
// otherwise an existing manifest is reused.
func (c *Client) Translate(ctx context.Context, job TranslateJob, force bool) (*JobResult, error) {
	c.logger.Info("submitting translation job",
		slog.String("urn", job.Input.URN),
		slog.Bool("force", force),
	)

	var headers map[string]string
	if force {
		headers = map[string]string{"x-ads-force": "true"}
	}

	var result JobResult
	if err := c.postJSON(ctx, c.path("/job"), scopeWrite, headers, job, &result); err != nil {
		return nil, err
	}

	c.logger.Debug("translation job accepted",
		slog.String("urn", result.URN),
		slog.String("result", result.Result),
	)

	return &result, nil
}

type formatsResponse struct {
	Formats map[string][]string `json:"formats"`
}

// Formats returns the supported conversions: target format to the list of
// source file types it can be produced from.
func (c *Client) Formats(ctx context.Context) (map[string][]string, error) {
	var fr formatsResponse
	if err := c.getJSON(ctx, c.path("/formats"), scopeRead, false, &fr); err != nil {
		return nil, err
	}

	return fr.Formats, nil
}
