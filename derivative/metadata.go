package derivative

import (
	"context"
	"fmt"
	"log/slog"
)

// ModelView is one viewable defined in a translated design.
type ModelView struct {
	GUID string `json:"guid"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type metadataResponse struct {
	Data struct {
		Type     string      `json:"type"`
		Metadata []ModelView `json:"metadata"`
	} `json:"data"`
}

// GetMetadata lists the model views of a translated design. The returned
// GUIDs key the object tree and property queries.
func (c *Client) GetMetadata(ctx context.Context, urn string) ([]ModelView, error) {
	c.logger.Info("getting metadata", slog.String("urn", urn))

	var mr metadataResponse
	if err := c.getJSON(ctx, c.path("/"+escapeSegment(urn)+"/metadata"), scopeRead, false, &mr); err != nil {
		return nil, err
	}

	return mr.Data.Metadata, nil
}

// ObjectNode is one node of a model view's object hierarchy.
type ObjectNode struct {
	ObjectID int64        `json:"objectid"`
	Name     string       `json:"name"`
	Objects  []ObjectNode `json:"objects,omitempty"`
}

type objectTreeResponse struct {
	Data struct {
		Type    string       `json:"type"`
		Objects []ObjectNode `json:"objects"`
	} `json:"data"`
}

// GetObjectTree retrieves the object hierarchy of a model view. The server
// answers 202 while still extracting; wait=true polls until the tree is
// ready (fixed delay, unbounded — bound it with ctx).
func (c *Client) GetObjectTree(ctx context.Context, urn, guid string, wait bool) ([]ObjectNode, error) {
	c.logger.Info("getting object tree",
		slog.String("urn", urn),
		slog.String("guid", guid),
		slog.Bool("wait", wait),
	)

	path := c.path(fmt.Sprintf("/%s/metadata/%s", escapeSegment(urn), escapeSegment(guid)))

	var otr objectTreeResponse
	if err := c.getJSON(ctx, path, scopeRead, wait, &otr); err != nil {
		return nil, err
	}

	return otr.Data.Objects, nil
}

// PropertyResult carries the properties of one object in a model view.
type PropertyResult struct {
	ObjectID   int64          `json:"objectid"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties"`
}

type propertiesResponse struct {
	Data struct {
		Type       string           `json:"type"`
		Collection []PropertyResult `json:"collection"`
	} `json:"data"`
}

// GetProperties retrieves the property collection of a model view. Same
// 202 semantics as GetObjectTree.
func (c *Client) GetProperties(ctx context.Context, urn, guid string, wait bool) ([]PropertyResult, error) {
	c.logger.Info("getting properties",
		slog.String("urn", urn),
		slog.String("guid", guid),
		slog.Bool("wait", wait),
	)

	path := c.path(fmt.Sprintf("/%s/metadata/%s/properties", escapeSegment(urn), escapeSegment(guid)))

	var pr propertiesResponse
	if err := c.getJSON(ctx, path, scopeRead, wait, &pr); err != nil {
		return nil, err
	}

	return pr.Data.Collection, nil
}

// GetThumbnail retrieves a rendered thumbnail as raw image bytes. width and
// height are hints; zero values let the server pick.
func (c *Client) GetThumbnail(ctx context.Context, urn string, width, height int) ([]byte, error) {
	path := c.path("/" + escapeSegment(urn) + "/thumbnail")
	if width > 0 || height > 0 {
		path = fmt.Sprintf("%s?width=%d&height=%d", path, width, height)
	}

	return c.getBuffer(ctx, path, scopeRead, false)
}
