package command

import (
	"encoding/json"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/chanstore/internal/cli/output"
	"github.com/yndnr/chanstore/internal/core/domain"
	"github.com/yndnr/chanstore/internal/storage"
)

// entryView is how an entry is printed.
type entryView struct {
	Key   string `json:"key" yaml:"key"`
	Type  string `json:"type" yaml:"type"`
	Value any    `json:"value" yaml:"value"`
}

type entryList []entryView

func (l entryList) Table() *output.Table {
	t := output.NewTable("KEY", "TYPE", "VALUE")
	for _, e := range l {
		t.AddRow(e.Key, e.Type, compactJSON(e.Value))
	}
	return t
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "?"
	}
	return string(b)
}

func viewOf(s *storage.DynamicStore[string], key string) (entryView, error) {
	raw, err := s.Raw(key)
	if err != nil {
		return entryView{}, err
	}
	typ, _ := s.TypeOf(key)

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return entryView{}, err
	}
	return entryView{Key: key, Type: typ, Value: v}, nil
}

func requireArgs(c *cli.Context, n int, usage string) error {
	if c.NArg() != n {
		return domain.ErrInvalidArgument.WithDetails("usage: chanstore " + c.Command.Name + " " + usage)
	}
	return nil
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show one entry",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1, "KEY"); err != nil {
				return err
			}
			env, s, err := openFrom(c)
			if err != nil {
				return err
			}
			view, err := viewOf(s, c.Args().First())
			if err != nil {
				return err
			}
			return env.Print(entryList{view})
		},
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Store a value and rewrite the channel",
		ArgsUsage: "KEY VALUE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Value type: string, int, float, bool, json",
				Value:   TypeString,
			},
		},
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 2, "KEY VALUE"); err != nil {
				return err
			}
			value, err := parseValue(c.String("type"), c.Args().Get(1))
			if err != nil {
				return domain.ErrInvalidArgument.WithDetails(err.Error())
			}

			env, s, err := openFrom(c)
			if err != nil {
				return err
			}
			key := c.Args().First()
			if err := s.Insert(c.Context, key, value); err != nil {
				return err
			}
			view, err := viewOf(s, key)
			if err != nil {
				return err
			}
			return env.Print(entryList{view})
		},
	}
}

// DelCommand returns the del command.
func DelCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Aliases:   []string{"rm"},
		Usage:     "Remove an entry and rewrite the channel",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if err := requireArgs(c, 1, "KEY"); err != nil {
				return err
			}
			env, s, err := openFrom(c)
			if err != nil {
				return err
			}
			key := c.Args().First()
			removed, err := s.Remove(c.Context, key)
			if err != nil {
				return err
			}
			if !removed {
				return domain.ErrNotFound.WithDetails(key)
			}
			return env.Print("deleted " + key)
		},
	}
}

// ListCommand returns the list command.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List entries in key order",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "keys",
				Usage: "Print keys only",
			},
		},
		Action: func(c *cli.Context) error {
			env, s, err := openFrom(c)
			if err != nil {
				return err
			}

			keys := s.Keys()
			if c.Bool("keys") {
				t := output.NewTable("KEY")
				for _, k := range keys {
					t.AddRow(k)
				}
				if env.Format == output.FormatTable {
					return env.Print(t)
				}
				return env.Print(keys)
			}

			list := make(entryList, 0, len(keys))
			for _, k := range keys {
				view, err := viewOf(s, k)
				if err != nil {
					return err
				}
				list = append(list, view)
			}
			return env.Print(list)
		},
	}
}
