package inventory

import "context"

// GraphNode is one asset in the movement graph.
type GraphNode struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Type     AssetType     `json:"type"`
	Category AssetCategory `json:"category,omitempty"`
}

// GraphEdge is one flow in the movement graph. Source and Target reference
// asset ids; an edge may point at an asset missing from Nodes when the data
// is inconsistent. That is a display-time concern, not validated here.
type GraphEdge struct {
	ID        string        `json:"id"`
	Source    string        `json:"source"`
	Target    string        `json:"target"`
	Purpose   string        `json:"purpose,omitempty"`
	Frequency FlowFrequency `json:"frequency,omitempty"`
}

// Graph is the visualization-ready view of an organization's data movement.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// FlowGraph projects the organization's assets and flows into a graph,
// preserving the underlying list order.
func (s *Service) FlowGraph(ctx context.Context, orgID string) (Graph, error) {
	assets, err := s.store.Assets(ctx).List(ctx, orgID)
	if err != nil {
		return Graph{}, err
	}
	flows, err := s.store.Flows(ctx).List(ctx, orgID)
	if err != nil {
		return Graph{}, err
	}

	g := Graph{
		Nodes: make([]GraphNode, 0, len(assets)),
		Edges: make([]GraphEdge, 0, len(flows)),
	}
	for _, asset := range assets {
		g.Nodes = append(g.Nodes, GraphNode{
			ID:       asset.ID,
			Name:     asset.Name,
			Type:     asset.Type,
			Category: asset.Category,
		})
	}
	for _, flow := range flows {
		g.Edges = append(g.Edges, GraphEdge{
			ID:        flow.ID,
			Source:    flow.SourceAssetID,
			Target:    flow.DestinationAssetID,
			Purpose:   flow.Purpose,
			Frequency: flow.Frequency,
		})
	}
	return g, nil
}
