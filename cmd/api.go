package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/gaelon/internal/dashboard"
	"github.com/desertthunder/gaelon/internal/shared"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the Web API with the stored token.
//
// --field selects a value with a gjson path so absent keys print nothing
// instead of failing.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	pretty := cmd.Bool("pretty")

	r.logger.Info("GET request", "path", path)

	body, err := dashboard.Run(ctx, r.session, func(ctx context.Context, token string) (json.RawMessage, error) {
		return r.client.Raw(ctx, path, token)
	})
	if err != nil {
		return err
	}

	if field := cmd.String("field"); field != "" {
		result := gjson.GetBytes(body, field)
		if !result.Exists() {
			r.logger.Warn("field not present in response", "field", field)
			return nil
		}
		if result.IsObject() || result.IsArray() {
			return r.writeRaw([]byte(result.Raw), pretty)
		}
		return r.writePlain("%s\n", result.String())
	}

	return r.writeRaw(body, pretty)
}

func (r *Runner) writeRaw(body []byte, pretty bool) error {
	var buf bytes.Buffer
	var err error
	if pretty {
		err = json.Indent(&buf, body, "", "  ")
	} else {
		err = json.Compact(&buf, body)
	}
	if err != nil {
		return fmt.Errorf("failed to format JSON: %w", err)
	}

	buf.WriteByte('\n')
	if _, err := r.output.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
