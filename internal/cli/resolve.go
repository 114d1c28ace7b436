package cli

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abczzz13/realip"
)

var errNoAddress = errors.New("no client address could be determined")

func newResolveCommand(a *app) *cobra.Command {
	var (
		remoteAddr string
		headers    []string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the client address of a single described request",
		Example: `  realip resolve --remote-addr 10.0.0.1:4242 -H 'X-Forwarded-For: 203.0.113.5, 10.0.0.1' --proxy-ips 10.0.0.0/8
  realip resolve --remote-addr 192.168.0.10:80 -H 'X-Forwarded-For: 203.169.1.37' --proxy-mode --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := buildRequest(cmd, remoteAddr, headers)
			if err != nil {
				return err
			}

			opts := append(a.settings.Options(), realip.WithLogger(resolverLogger{l: a.logger}))
			resolver, err := realip.New(opts...)
			if err != nil {
				return err
			}

			res := resolver.Resolve(req)
			if err := printResolution(cmd.OutOrStdout(), format, res); err != nil {
				return err
			}
			if !res.Valid() {
				return errNoAddress
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&remoteAddr, "remote-addr", "", "Address of the direct peer, usually host:port.")
	flags.StringArrayVarP(&headers, "header", "H", nil, "Request header as 'Name: value'. May be repeated.")
	flags.StringVar(&format, "format", formatText, fmt.Sprintf("Output format. One of %s, %s or %s.", formatText, formatJSON, formatYAML))

	return cmd
}

func buildRequest(cmd *cobra.Command, remoteAddr string, headers []string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, "/", nil)
	if err != nil {
		return nil, err
	}
	req.RemoteAddr = remoteAddr

	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q (want 'Name: value')", h)
		}
		req.Header.Add(realip.CanonicalHeaderKey(name), strings.TrimSpace(value))
	}

	return req, nil
}
