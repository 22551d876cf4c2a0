package reftree_test

import (
	"context"
	"fmt"

	"github.com/reftree/reftree/pkg/project"
	"github.com/reftree/reftree/pkg/reftree"
)

func Example() {
	refs := map[string][]string{
		"App":  {"Core", "Data"},
		"Data": {"Core"},
		"Core": {},
	}
	src := project.SourceFunc(func(_ context.Context, p project.Project) ([]project.Project, error) {
		var out []project.Project
		for _, id := range refs[p.ID] {
			out = append(out, project.Project{ID: id})
		}
		return out, nil
	})

	tree, err := reftree.NewBuilder(src, reftree.Options{}).BuildTree(context.Background(), project.Project{ID: "App"})
	if err != nil {
		fmt.Println(err)
		return
	}
	for d, level := range tree.Levels() {
		for _, n := range level {
			fmt.Printf("%d %s (in=%d out=%d)\n", d, n.Label(), n.Inbound, n.Outbound)
		}
	}
	// Output:
	// 0 App (in=0 out=2)
	// 1 Data (in=1 out=1)
	// 2 Core (in=2 out=0)
}
