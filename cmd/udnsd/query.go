package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/miekg/dns"
	"github.com/urfave/cli/v2"

	"github.com/udnsd/udns/internal/dns/common/log"
	"github.com/udnsd/udns/internal/dns/domain"
	"github.com/udnsd/udns/internal/dns/gateways/wire"
)

func queryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Aliases:   []string{"q"},
		Usage:     "send one query to a DNS server and print the reply",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Value: "127.0.0.1:53",
				Usage: "server `HOST:PORT`",
			},
			&cli.BoolFlag{
				Name:  "tcp",
				Usage: "use TCP instead of UDP",
			},
			&cli.StringFlag{
				Name:  "type",
				Value: "A",
				Usage: "query type, e.g. A, MX, SOA or ANY",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 2 * time.Second,
				Usage: "how long to wait for the reply",
			},
		},
		Action: runQuery,
	}
}

func runQuery(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one NAME")
	}
	qtype := domain.RRTypeFromString(c.String("type"))
	if qtype == 0 {
		return fmt.Errorf("unknown query type %q", c.String("type"))
	}

	network := "udp"
	if c.Bool("tcp") {
		network = "tcp"
	}
	server := c.String("server")

	msg, err := wire.NewQueryMsg(domain.Question{ID: dns.Id(), Name: c.Args().First(), Type: qtype, Class: domain.RRClassIN})
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	client := &dns.Client{
		Net:     network,
		Timeout: c.Duration("timeout"),
		UDPSize: dns.MaxMsgSize,
	}
	reply, rtt, err := client.ExchangeContext(c.Context, msg, server)
	if err != nil {
		return fmt.Errorf("no reply from %s over %s: %w", server, network, err)
	}

	// the codec checks the ID and maps the reply onto the domain model
	raw, err := reply.Pack()
	if err != nil {
		return fmt.Errorf("failed to repack reply: %w", err)
	}
	resp, err := wire.NewMsgCodec(log.NewNoopLogger()).DecodeResponse(raw, msg.Id)
	if err != nil {
		return fmt.Errorf("failed to decode reply: %w", err)
	}

	printResponse(c.App.Writer, resp, network, server, rtt)
	return nil
}

// printResponse writes the reply in a dig-like layout.
func printResponse(w io.Writer, resp domain.DNSResponse, network, server string, rtt time.Duration) {
	status := color.GreenString(resp.RCode.String())
	if resp.IsError() {
		status = color.RedString(resp.RCode.String())
	}

	var flags []string
	if resp.Authoritative {
		flags = append(flags, "aa")
	}
	if resp.RecursionAvailable {
		flags = append(flags, "ra")
	}

	fmt.Fprintf(w, "%s id: %d, status: %s, flags: %v\n", color.CyanString(";; ->>HEADER<<-"), resp.ID, status, flags)
	fmt.Fprintf(w, ";; QUERY: 1, ANSWER: %d, AUTHORITY: %d, ADDITIONAL: %d\n",
		resp.AnswerCount(), resp.AuthorityCount(), resp.AdditionalCount())
	fmt.Fprintf(w, "\n%s\n;%s\n", color.YellowString(";; QUESTION SECTION:"), resp.Question)

	sections := []struct {
		title   string
		records []domain.ResourceRecord
	}{
		{"ANSWER", resp.Answers},
		{"AUTHORITY", resp.Authority},
		{"ADDITIONAL", resp.Additional},
	}
	for _, s := range sections {
		if len(s.records) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", color.YellowString(";; %s SECTION:", s.title))
		for _, rr := range s.records {
			fmt.Fprintln(w, rr.String())
		}
	}

	fmt.Fprintf(w, "\n;; Query time: %d msec\n;; SERVER: %s (%s)\n", rtt.Milliseconds(), server, network)
}
