package cmd

import (
	"github.com/dynbike/dynbike/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the dynbike MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents run segmentation sessions and batch trims.

Each respond_segmentation call resumes the stored session, so a session store
(--session-backend other than none) is required for multi-step segmentation.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}
