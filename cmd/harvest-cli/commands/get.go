package commands

import (
	"fmt"
	"os"
	"strings"

	"webharvest/lib/connector"
	"webharvest/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var getMethod *string
var getHeaders *[]string
var getXpaths *[]string
var getLoginUrl *string

func init() {
	getMethod = getCmd.Flags().StringP("method", "X", "GET", "HTTP method to use.")
	getHeaders = getCmd.Flags().StringArrayP(
		"header", "H", nil, "Extra request header in key=value form. Repeatable.")
	getXpaths = getCmd.Flags().StringArray(
		"xpath", nil, "Named XPath query to run against the response, in name=expression form. Repeatable.")
	getLoginUrl = getCmd.Flags().String(
		"login-url", "", "Log in against this endpoint before the request, overriding the configured login url.")
	rootCmd.AddCommand(getCmd)
}

func applyLoginUrlOverride(config *Config) {
	if *getLoginUrl != "" {
		config.LoginUrl = *getLoginUrl
	}
}

func parsePairs(pairs []string, flagName string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			serviceutil.Fatal(
				"failed to parse flag",
				fmt.Errorf("--%s %q is not in key=value form", flagName, pair),
			)
		}
		out[key] = value
	}
	return out
}

var getCmd = &cobra.Command{
	Use:   "get <endpoint>",
	Short: "Issues a request through the session and optionally extracts data from the response.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := readConfig()
		applyLoginUrlOverride(&config)
		client := createClient(cmd.Context(), config)

		var opts []connector.RequestOption
		headers := parsePairs(*getHeaders, "header")
		if len(headers) > 0 {
			opts = append(opts, connector.WithHeaders(headers))
		}

		res, err := client.Do(cmd.Context(), *getMethod, args[0], opts...)
		if err != nil {
			serviceutil.Fatal("request failed", err)
		}

		xpaths := parsePairs(*getXpaths, "xpath")
		if len(xpaths) == 0 {
			fmt.Println(res.String())
			return
		}

		results, err := client.ExtractNamed(xpaths, res)
		if err != nil {
			serviceutil.Fatal("extraction failed", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Name", "Value"})
		for _, pair := range *getXpaths {
			name, _, _ := strings.Cut(pair, "=")
			t.AppendRow(table.Row{name, results[name]})
		}
		t.Render()
	},
}
