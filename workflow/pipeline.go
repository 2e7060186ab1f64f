package workflow

// NewChatPipeline compiles the extract -> summarize graph.
func NewChatPipeline() (*Runnable, error) {
	return NewGraph().
		AddNode(NodeExtract, Extract).
		AddNode(NodeSummarize, SummarizeNode).
		SetEntryPoint(NodeExtract).
		AddEdge(NodeExtract, NodeSummarize).
		SetFinishPoint(NodeSummarize).
		Compile()
}
