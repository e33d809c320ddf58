package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gatherly/gatherly/pkg/availability"
	"github.com/gatherly/gatherly/pkg/ics"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type highlightsOptions struct {
	members      []string
	from         string
	days         int
	timezone     string
	hideHolidays bool
	dedupAllDay  bool
	format       string
	now          string
}

var highlightsOpts highlightsOptions

var highlightsCmd = &cobra.Command{
	Use:   "highlights",
	Short: "Print the windows when every member is free, and a heat map of the period",
	Long: `Parse one calendar file per member and print the windows when everybody is free.

Examples:
  gatherlyctl highlights --member Ana=ana.ics --member Ben=ben.ics
  gatherlyctl highlights --member Ana=ana.ics --member Ben=ben.ics --from 2026-01-05 --days 7 --tz Europe/Warsaw
  gatherlyctl highlights --member Ana=ana.ics --hide-holidays --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHighlights(highlightsOpts, cmd.OutOrStdout())
	},
}

func init() {
	highlightsCmd.Flags().StringArrayVarP(&highlightsOpts.members, "member", "m", nil, "Member as Name=path/to/calendar.ics (repeatable)")
	highlightsCmd.Flags().StringVar(&highlightsOpts.from, "from", "", "First day as YYYY-MM-DD (default: today)")
	highlightsCmd.Flags().IntVar(&highlightsOpts.days, "days", 7, "Number of days to scan")
	highlightsCmd.Flags().StringVar(&highlightsOpts.timezone, "tz", "Local", "IANA timezone the days are taken in")
	highlightsCmd.Flags().BoolVar(&highlightsOpts.hideHolidays, "hide-holidays", false, "Ignore holiday and birthday entries")
	highlightsCmd.Flags().BoolVar(&highlightsOpts.dedupAllDay, "dedup-all-day", false, "Collapse identical all-day entries of a member")
	highlightsCmd.Flags().StringVar(&highlightsOpts.format, "format", "human", "Output format (human, json)")
	highlightsCmd.Flags().StringVar(&highlightsOpts.now, "now", "", "Evaluate as if it was this RFC3339 instant")
	_ = highlightsCmd.Flags().MarkHidden("now")
	_ = highlightsCmd.MarkFlagRequired("member")
	rootCmd.AddCommand(highlightsCmd)
}

func runHighlights(opts highlightsOptions, out io.Writer) error {
	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return fmt.Errorf("unknown timezone %q: %w", opts.timezone, err)
	}
	if opts.days <= 0 {
		return fmt.Errorf("--days must be positive")
	}
	now := time.Now()
	if opts.now != "" {
		if now, err = time.Parse(time.RFC3339, opts.now); err != nil {
			return fmt.Errorf("invalid --now: %w", err)
		}
	}
	start := time.Date(now.In(loc).Year(), now.In(loc).Month(), now.In(loc).Day(), 0, 0, 0, 0, loc)
	if opts.from != "" {
		if start, err = time.ParseInLocation(time.DateOnly, opts.from, loc); err != nil {
			return fmt.Errorf("invalid --from, expected YYYY-MM-DD: %w", err)
		}
	}
	end := start.AddDate(0, 0, opts.days)

	var members []availability.Member
	var events []availability.CalendarEvent
	for _, spec := range opts.members {
		member, memberEvents, err := loadMember(spec, start, end, loc)
		if err != nil {
			return err
		}
		members = append(members, member)
		events = append(events, memberEvents...)
	}

	memberIds := make([]availability.MemberId, 0, len(members))
	for _, m := range members {
		memberIds = append(memberIds, m.Id)
	}
	result := availability.Compute(availability.Snapshot{
		Events:      events,
		Members:     memberIds,
		WindowStart: start,
		WindowEnd:   end,
		Preferences: availability.Preferences{HideHolidays: opts.hideHolidays, DedupAllDay: opts.dedupAllDay},
		Now:         now,
	})
	log.Debugf("%d of %d events considered", len(result.Events), len(events))

	if opts.format == "json" {
		return writeJSON(out, result)
	}
	writeHuman(out, members, result)
	return nil
}

// loadMember reads a Name=path argument. The name doubles as the member id.
func loadMember(spec string, from, to time.Time, loc *time.Location) (availability.Member, []availability.CalendarEvent, error) {
	name, path, ok := strings.Cut(spec, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || path == "" {
		return availability.Member{}, nil, fmt.Errorf("invalid --member %q, expected Name=path.ics", spec)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return availability.Member{}, nil, fmt.Errorf("failed to read calendar of %s: %w", name, err)
	}
	parsed, err := ics.Parse(body, loc)
	if err != nil {
		return availability.Member{}, nil, fmt.Errorf("failed to parse calendar of %s: %w", name, err)
	}
	expanded, err := ics.Expand(parsed, ics.ExpandConfig{RangeStart: from, RangeEnd: to})
	if err != nil {
		return availability.Member{}, nil, err
	}
	member := availability.Member{Id: availability.MemberId(name), Name: name}
	return member, ics.ToCalendarEvents(expanded.Occurrences, ics.Source{Owner: member.Id}), nil
}

var bucketSymbols = map[availability.Bucket]string{
	availability.EveryoneFree: "##",
	availability.Mostly:       "++",
	availability.Half:         "==",
	availability.Few:          "--",
	availability.MostlyBusy:   "..",
	availability.NoData:       "  ",
}

func writeHuman(out io.Writer, members []availability.Member, result availability.Result) {
	if len(result.Highlights) == 0 {
		fmt.Fprintln(out, "No window where everyone is free.")
	} else {
		fmt.Fprintf(out, "Everyone (%d) is free:\n", len(members))
		for _, h := range result.Highlights {
			fmt.Fprintf(out, "  %-28s %s %02d:00-%02d:00\n", h.Label, h.Date.Format("Mon Jan 2"), h.StartHour, h.EndHour+1)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "%-12s", "")
	for _, b := range availability.AllBlocks() {
		fmt.Fprintf(out, " %-10s", b.Name)
	}
	fmt.Fprintln(out)
	for i := 0; i < len(result.BlockSummaries); i += len(availability.AllBlocks()) {
		fmt.Fprintf(out, "%-12s", result.BlockSummaries[i].Date.Format("Mon Jan 02"))
		for _, b := range result.BlockSummaries[i : i+len(availability.AllBlocks())] {
			bucket := availability.Intensity(len(b.FreeMembers), b.TotalMembers)
			fmt.Fprintf(out, " %s %d/%-5d", bucketSymbols[bucket], len(b.FreeMembers), b.TotalMembers)
		}
		fmt.Fprintln(out)
	}
}

type highlightJSON struct {
	Label  string    `json:"label"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Blocks []string  `json:"blocks"`
}

type blockJSON struct {
	Date      string              `json:"date"`
	Block     string              `json:"block"`
	Free      int                 `json:"free"`
	Total     int                 `json:"total"`
	Intensity availability.Bucket `json:"intensity"`
}

func writeJSON(out io.Writer, result availability.Result) error {
	payload := struct {
		Highlights []highlightJSON `json:"highlights"`
		Blocks     []blockJSON     `json:"blocks"`
	}{
		Highlights: make([]highlightJSON, 0, len(result.Highlights)),
		Blocks:     make([]blockJSON, 0, len(result.BlockSummaries)),
	}
	for _, h := range result.Highlights {
		names := make([]string, 0, len(h.Blocks))
		for _, b := range h.Blocks {
			names = append(names, b.Name)
		}
		payload.Highlights = append(payload.Highlights, highlightJSON{Label: h.Label, Start: h.Start, End: h.End, Blocks: names})
	}
	for _, b := range result.BlockSummaries {
		payload.Blocks = append(payload.Blocks, blockJSON{
			Date:      b.Date.Format(time.DateOnly),
			Block:     b.Block.Name,
			Free:      len(b.FreeMembers),
			Total:     b.TotalMembers,
			Intensity: availability.Intensity(len(b.FreeMembers), b.TotalMembers),
		})
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}
