package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yeisme/attachvault/pkg/internal/backend"
	"github.com/yeisme/attachvault/pkg/internal/storage/db"
	"github.com/yeisme/attachvault/pkg/internal/storage/kv"
	"github.com/yeisme/attachvault/pkg/internal/storage/mq"
)

// registered 列出编译进二进制的某一类实现.
type registered struct {
	use     string
	short   string
	title   string
	aliases []string
	names   func() []string
}

var registries = []registered{
	{
		use:   "db",
		short: "Database related commands",
		title: "Registered database types:",
		names: func() []string { return stringsOf(db.GetRegisteredDBTypes()) },
	},
	{
		use:     "kv",
		short:   "Key-Value store related commands",
		title:   "Registered kv types:",
		aliases: []string{"keyvalue"},
		names:   func() []string { return stringsOf(kv.GetRegisteredKVTypes()) },
	},
	{
		use:     "mq",
		short:   "Message queue related commands",
		title:   "Registered mq types:",
		aliases: []string{"messagequeue"},
		names:   func() []string { return stringsOf(mq.GetRegisteredMQTypes()) },
	},
	{
		use:   "storage",
		short: "Storage engine related commands",
		title: "Registered storage types:",
		names: backend.Types,
	},
}

func stringsOf[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}

	return out
}

func printList(w io.Writer, title string, names []string) {
	fmt.Fprintln(w, title)

	for _, n := range names {
		fmt.Fprintln(w, "   - "+n)
	}
}

// registerTypeCommands 为每一类实现注册 <name> ls 子命令.
func registerTypeCommands() {
	for _, r := range registries {
		parent := &cobra.Command{
			Use:     r.use,
			Short:   r.short,
			Aliases: r.aliases,
		}

		parent.AddCommand(&cobra.Command{
			Use:     "list",
			Short:   "list all registered " + r.use + " types",
			Aliases: []string{"ls", "l", "types"},
			Run: func(cmd *cobra.Command, args []string) {
				printList(cmd.OutOrStdout(), r.title, r.names())
			},
		})

		rootCmd.AddCommand(parent)
	}
}
