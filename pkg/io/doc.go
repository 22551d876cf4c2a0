// Package io reads and writes leveled trees as JSON documents.
//
// # Format
//
//	{
//	  "root": "App",
//	  "max_depth": 2,
//	  "nodes": [
//	    {"id": "App", "depth": 0, "inbound": 0, "outbound": 2, "expanded": true},
//	    {"id": "Data", "depth": 1, "inbound": 1, "outbound": 1, "owner": "App", "expanded": true},
//	    {"id": "Core", "depth": 2, "inbound": 2, "outbound": 0, "owner": "Data", "expanded": true}
//	  ],
//	  "edges": [
//	    {"from": "App", "to": "Data", "deepest": true},
//	    {"from": "App", "to": "Core"},
//	    {"from": "Data", "to": "Core", "deepest": true}
//	  ]
//	}
//
// Nodes appear in creation order; "owner" names the canonical parent and
// "deepest" marks the edge from it. Edges list every reference, so the
// document also describes the original reference graph: [Document.ToWorkspace]
// turns it back into a workspace that rebuilds the same tree.
package io
