package main

import (
	"fmt"
	"strconv"
	"strings"

	hashring "github.com/Sarankumar18/study-hub-sub003"
)

// parseNodes parses node specs in form id[=weight].
func parseNodes(specs []string) ([]hashring.Node, error) {
	ret := make([]hashring.Node, 0, len(specs))
	for _, s := range specs {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		id, w, hasWeight := strings.Cut(s, "=")
		n := hashring.Node{ID: id}
		if hasWeight {
			v, err := strconv.ParseFloat(w, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid weight of node %q: %w", id, err)
			}
			n.Weight = v
		}
		ret = append(ret, n)
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("no nodes given")
	}
	return ret, nil
}

func buildRing(specs []string, vnodes int) (*hashring.Ring, error) {
	nodes, err := parseNodes(specs)
	if err != nil {
		return nil, err
	}
	r := &hashring.Ring{
		Name:         "ringctl",
		VirtualNodes: vnodes,
		Logger:       logger,
	}
	for _, n := range nodes {
		if _, err := r.AddNode(n); err != nil {
			return nil, err
		}
	}
	return r, nil
}
