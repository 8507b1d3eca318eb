package commands

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cspace/display"
	"github.com/teranos/cspace/errors"
	"github.com/teranos/cspace/logger"
	"github.com/teranos/cspace/space"
	"github.com/teranos/cspace/store"
	"github.com/teranos/cspace/sym"
)

// DbCmd represents the db (snapshot storage) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: sym.DB + " Store and load space snapshots",
	Long: sym.DB + ` db — Store and load space snapshots

Spaces are stored as content-addressed snapshots. Saving a space whose
content has not changed is a no-op; every change moves the space's head
and is kept in its history.

Examples:
  cspace db save colour.toml         # Snapshot the space a file defines
  cspace db ls                       # List stored spaces
  cspace db show <space-id>          # Summarize the head snapshot
  cspace db show --cid <cid>         # Summarize a specific snapshot
  cspace db history <space-id>       # Show every head move
  cspace db rm <space-id>            # Delete a space and its snapshots`,
}

var dbSaveCmd = &cobra.Command{
	Use:   "save <file>...",
	Short: "Snapshot the spaces defined by files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDbSave,
}

var dbLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored spaces",
	Args:  cobra.NoArgs,
	RunE:  runDbLs,
}

var dbShowCmd = &cobra.Command{
	Use:   "show [space-id]",
	Short: "Summarize a stored space",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDbShow,
}

var dbHistoryCmd = &cobra.Command{
	Use:   "history <space-id>",
	Short: "Show a space's snapshot history",
	Args:  cobra.ExactArgs(1),
	RunE:  runDbHistory,
}

var dbRmCmd = &cobra.Command{
	Use:   "rm <space-id>",
	Short: "Delete a space with its history and snapshots",
	Args:  cobra.ExactArgs(1),
	RunE:  runDbRm,
}

var (
	dbPath    string
	dbShowCID string
)

func init() {
	DbCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default from config)")
	dbShowCmd.Flags().StringVar(&dbShowCID, "cid", "", "Show this snapshot instead of a head")

	DbCmd.AddCommand(dbSaveCmd)
	DbCmd.AddCommand(dbLsCmd)
	DbCmd.AddCommand(dbShowCmd)
	DbCmd.AddCommand(dbHistoryCmd)
	DbCmd.AddCommand(dbRmCmd)
}

func openStore() (*store.SpaceStore, func(), error) {
	database, err := openDatabase(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return store.New(database, logger.ComponentLogger("store")), func() { database.Close() }, nil
}

func parseSpaceID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, errors.WithHint(errors.Wrapf(err, "space id %q", arg), "list stored spaces with: cspace db ls")
	}
	return id, nil
}

type savedSpace struct {
	File string    `json:"file"`
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	CID  store.CID `json:"cid"`
}

func runDbSave(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	var out []savedSpace
	for _, path := range args {
		b, err := loadSpace(cfg, path)
		if err != nil {
			return err
		}
		cid, err := st.Save(cmd.Context(), b.Space)
		if err != nil {
			return errors.Wrapf(err, "save %s", path)
		}
		out = append(out, savedSpace{File: path, ID: b.Space.ID(), Name: b.Space.Name(), CID: cid})
	}
	return display.Render(cmd, out, func() error {
		for _, s := range out {
			pterm.Success.Printf("%s %s saved as %s (space %s)\n", sym.DB, s.Name, s.CID, s.ID)
		}
		return nil
	})
}

func runDbLs(cmd *cobra.Command, args []string) error {
	st, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	heads, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	if heads == nil {
		heads = []store.Head{}
	}
	return display.Render(cmd, heads, func() error {
		if len(heads) == 0 {
			pterm.Info.Println("No stored spaces")
			return nil
		}
		rows := make([][]string, len(heads))
		for i, h := range heads {
			rows[i] = []string{h.Name, h.ID.String(), h.CID.String(), h.UpdatedAt.Format("2006-01-02 15:04:05")}
		}
		return display.Table([]string{"Name", "Space", "Head", "Updated"}, rows)
	})
}

type storedSummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Dims    int       `json:"dims"`
	P       string    `json:"p"`
	Points  int       `json:"points"`
	Regions []string  `json:"regions"`
}

func summarizeStored(sp *space.Space) storedSummary {
	s := storedSummary{
		ID:      sp.ID(),
		Name:    sp.Name(),
		Dims:    len(sp.Dimensions()),
		P:       display.Float(sp.Metric().P),
		Points:  sp.Len(),
		Regions: []string{},
	}
	for _, r := range sp.Regions() {
		s.Regions = append(s.Regions, r.Name)
	}
	return s
}

func runDbShow(cmd *cobra.Command, args []string) error {
	if (len(args) == 1) == (dbShowCID != "") {
		return errors.New("give either a space id or --cid")
	}
	st, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	var sp *space.Space
	if dbShowCID != "" {
		cid, err := store.ParseCID(dbShowCID)
		if err != nil {
			return err
		}
		sp, err = st.LoadSnapshot(cmd.Context(), cid)
		if err != nil {
			return err
		}
	} else {
		id, err := parseSpaceID(args[0])
		if err != nil {
			return err
		}
		sp, err = st.Load(cmd.Context(), id)
		if err != nil {
			return err
		}
	}

	s := summarizeStored(sp)
	return display.Render(cmd, s, func() error {
		pterm.DefaultSection.Printf("%s %s", sym.Space, s.Name)
		display.KeyValues([][2]string{
			{"id", s.ID.String()},
			{"dimensions", fmt.Sprint(s.Dims)},
			{"metric p", s.P},
			{"points", fmt.Sprint(s.Points)},
			{"regions", strings.Join(s.Regions, ", ")},
		})
		return nil
	})
}

func runDbHistory(cmd *cobra.Command, args []string) error {
	id, err := parseSpaceID(args[0])
	if err != nil {
		return err
	}
	st, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	hist, err := st.History(cmd.Context(), id)
	if err != nil {
		return err
	}
	return display.Render(cmd, hist, func() error {
		rows := make([][]string, len(hist))
		for i, e := range hist {
			rows[i] = []string{fmt.Sprint(e.Seq), e.CID.String(), e.SavedAt.Format("2006-01-02 15:04:05")}
		}
		return display.Table([]string{"Seq", "Snapshot", "Saved"}, rows)
	})
}

func runDbRm(cmd *cobra.Command, args []string) error {
	id, err := parseSpaceID(args[0])
	if err != nil {
		return err
	}
	st, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := st.Delete(cmd.Context(), id); err != nil {
		return err
	}
	pterm.Success.Printf("%s Deleted space %s\n", sym.DB, id)
	return nil
}
