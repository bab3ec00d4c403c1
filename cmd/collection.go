package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"instrit/internal/qdrant"
)

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage the vector store collection",
}

var collectionEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the collection if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		defer store.Close()

		created, err := store.EnsureCollection(cmd.Context())
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Collection '%s' created.\n", cfg.VectorStore.Collection)
		} else {
			fmt.Printf("Collection '%s' already exists.\n", cfg.VectorStore.Collection)
		}
		return nil
	},
}

var collectionInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the number of stored points",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s): %d points\n", cfg.VectorStore.Collection, cfg.VectorStore.Type, n)
		return nil
	},
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List Qdrant collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.VectorStore.Type != "qdrant" {
			return fmt.Errorf("list is only available for the qdrant store")
		}
		client := qdrant.NewClient(qdrant.Config{
			URL:     cfg.VectorStore.Qdrant.URL,
			APIKey:  cfg.VectorStore.Qdrant.APIKey,
			Timeout: time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
		names, err := client.ListCollections(cmd.Context())
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var collectionDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the collection and all its points",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteCollection(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Collection '%s' deleted.\n", cfg.VectorStore.Collection)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(collectionCmd)
	collectionCmd.AddCommand(collectionEnsureCmd, collectionInfoCmd, collectionListCmd, collectionDeleteCmd)
}
