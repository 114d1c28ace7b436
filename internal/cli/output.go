package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ghodss/yaml"

	"github.com/abczzz13/realip"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// resolutionView is the printable form of a realip.Resolution.
type resolutionView struct {
	Address   string `json:"address"`
	Valid     bool   `json:"valid"`
	Forwarded bool   `json:"forwarded"`
	Source    string `json:"source,omitempty"`
	Header    string `json:"header,omitempty"`
}

func viewOf(res realip.Resolution) resolutionView {
	return resolutionView{
		Address:   res.String(),
		Valid:     res.Valid(),
		Forwarded: res.Forwarded(),
		Source:    res.Source,
		Header:    res.Header,
	}
}

func printResolution(w io.Writer, format string, res realip.Resolution) error {
	view := viewOf(res)

	switch format {
	case formatText, "":
		_, err := fmt.Fprintln(w, view.Address)
		return err
	case formatJSON:
		return json.NewEncoder(w).Encode(view)
	case formatYAML:
		out, err := yaml.Marshal(view)
		if err != nil {
			return fmt.Errorf("unable to encode YAML: %w", err)
		}
		_, err = w.Write(out)
		return err
	}

	return fmt.Errorf("unknown output format %q (must be %s, %s or %s)", format, formatText, formatJSON, formatYAML)
}
