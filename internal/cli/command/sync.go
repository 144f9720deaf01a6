package command

import (
	"fmt"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/chanstore/internal/cli/output"
	"github.com/yndnr/chanstore/internal/storage"
)

// writeView is how a write report is printed.
type writeView struct {
	Entries  int    `json:"entries" yaml:"entries"`
	Bytes    int    `json:"bytes" yaml:"bytes"`
	Chunks   int    `json:"chunks" yaml:"chunks"`
	Deleted  int    `json:"deleted" yaml:"deleted"`
	Appended int    `json:"appended" yaml:"appended"`
	Duration string `json:"duration" yaml:"duration"`
}

func newWriteView(r storage.WriteReport) writeView {
	return writeView{
		Entries:  r.Entries,
		Bytes:    r.Bytes,
		Chunks:   r.Chunks,
		Deleted:  r.Deleted,
		Appended: r.Appended,
		Duration: r.Duration.Round(time.Millisecond).String(),
	}
}

func (w writeView) Table() *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("entries", strconv.Itoa(w.Entries))
	t.AddRow("bytes", strconv.Itoa(w.Bytes))
	t.AddRow("chunks", strconv.Itoa(w.Chunks))
	t.AddRow("deleted", strconv.Itoa(w.Deleted))
	t.AddRow("appended", strconv.Itoa(w.Appended))
	t.AddRow("duration", w.Duration)
	return t
}

// SyncCommand returns the sync command.
func SyncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Rewrite the channel from the loaded map, repairing an interrupted write",
		Action: func(c *cli.Context) error {
			env, s, err := openFrom(c)
			if err != nil {
				return err
			}
			if r := s.LoadReport(); r.Fallback {
				return fmt.Errorf("channel content is unreadable (%v); refusing to overwrite it with an empty map, use set or del to replace it", r.Reason)
			}
			if err := s.Write(c.Context); err != nil {
				return err
			}
			report, _ := s.LastWrite()
			return env.Print(newWriteView(report))
		},
	}
}

// infoView is how the info command prints the store.
type infoView struct {
	Workspace  string `json:"workspace" yaml:"workspace"`
	Channel    string `json:"channel" yaml:"channel"`
	ChannelID  string `json:"channel_id" yaml:"channel_id"`
	Restricted bool   `json:"restricted" yaml:"restricted"`
	State      string `json:"state" yaml:"state"`
	Entries    int    `json:"entries" yaml:"entries"`
	Records    int    `json:"records" yaml:"records"`
	Bytes      int    `json:"bytes" yaml:"bytes"`
	Sealed     bool   `json:"sealed" yaml:"sealed"`
	Truncated  bool   `json:"truncated" yaml:"truncated"`
	Fallback   bool   `json:"fallback" yaml:"fallback"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func (v infoView) Table() *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("workspace", v.Workspace)
	t.AddRow("channel", v.Channel)
	t.AddRow("channel_id", v.ChannelID)
	t.AddRow("restricted", strconv.FormatBool(v.Restricted))
	t.AddRow("state", v.State)
	t.AddRow("entries", strconv.Itoa(v.Entries))
	t.AddRow("records", strconv.Itoa(v.Records))
	t.AddRow("bytes", strconv.Itoa(v.Bytes))
	t.AddRow("sealed", strconv.FormatBool(v.Sealed))
	t.AddRow("truncated", strconv.FormatBool(v.Truncated))
	t.AddRow("fallback", strconv.FormatBool(v.Fallback))
	if v.Reason != "" {
		t.AddRow("reason", v.Reason)
	}
	return t
}

// InfoCommand returns the info command.
func InfoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show the storage channel and what loading it found",
		Action: func(c *cli.Context) error {
			env, s, err := openFrom(c)
			if err != nil {
				return err
			}

			ref := s.Channel()
			r := s.LoadReport()
			view := infoView{
				Workspace:  ref.Workspace,
				Channel:    ref.Name,
				ChannelID:  ref.ID,
				Restricted: ref.Restricted,
				State:      s.State().String(),
				Entries:    s.Len(),
				Records:    r.Records,
				Bytes:      r.Bytes,
				Sealed:     r.Sealed,
				Truncated:  r.Truncated,
				Fallback:   r.Fallback,
			}
			if r.Reason != nil {
				view.Reason = r.Reason.Error()
			}
			return env.Print(view)
		},
	}
}
