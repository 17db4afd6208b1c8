package server

import "github.com/ironsheep/tv-restore-mcp/internal/masking"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

// outputProperties are accepted by every tool that returns an image.
func outputProperties(props map[string]interface{}) map[string]interface{} {
	props["scale"] = map[string]interface{}{
		"type":        "number",
		"description": "Optional scale factor for the returned preview. Default 1.0",
		"default":     1.0,
	}
	props["rescale"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"clamp", "minmax"},
		"description": "How samples map to 8-bit: clamp to [0,1], or stretch the grid's own range. Default clamp",
		"default":     "clamp",
	}
	props["output_path"] = map[string]interface{}{
		"type":        "string",
		"description": "Optional path to also write the composite PNG to",
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and grayscale intensity range.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Restoration
		{
			Name:        "tv_denoise",
			Description: "Denoise the grayscale image with total-variation (ROF) diffusion. Optionally adds seeded Gaussian noise first and reports SNR/PSNR against the clean image. Returns the input and result side by side.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": outputProperties(map[string]interface{}{
					"path": pathProperty(),
					"iterations": map[string]interface{}{
						"type":        "integer",
						"description": "Primal-dual iterations. Default 100",
						"default":     100,
					},
					"lambda": map[string]interface{}{
						"type":        "number",
						"description": "Data fidelity weight; larger stays closer to the input. Default 10",
						"default":     10,
					},
					"clamp": map[string]interface{}{
						"type":        "boolean",
						"description": "Clamp the result to [0,1] every iteration. Default false",
						"default":     false,
					},
					"noise_sigma": map[string]interface{}{
						"type":        "number",
						"description": "Standard deviation of Gaussian noise added before denoising, in [0,1] intensity units. Default 0 (none)",
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Random seed for the noise. Default 1",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "tv_inpaint",
			Description: "Mask part of the grayscale image and reconstruct the missing cells with total-variation inpainting. Reports SNR/PSNR of the masked and reconstructed images. Returns both side by side.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": outputProperties(map[string]interface{}{
					"path": pathProperty(),
					"iterations": map[string]interface{}{
						"type":        "integer",
						"description": "Primal-dual iterations. Default 100",
						"default":     100,
					},
					"mask": map[string]interface{}{
						"type":        "object",
						"description": "Cells to hide. Default: random with ratio 0.5",
						"properties": map[string]interface{}{
							"type": map[string]interface{}{
								"type": "string",
								"enum": []string{"random", "rows", "rectangle", "center", "region"},
							},
							"ratio": map[string]interface{}{
								"type":        "number",
								"description": "Occluded fraction for random masks, clamped to [0,1]. 0.5 when omitted",
								"default":     masking.DefaultRatio,
							},
							"region": map[string]interface{}{
								"type": "string",
								"enum": masking.Regions,
							},
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer", "description": "Exclusive"},
							"y2": map[string]interface{}{"type": "integer", "description": "Exclusive"},
						},
						"required": []string{"type"},
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Random seed for random masks. Default 1",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "dct_denoise",
			Description: "Add seeded Gaussian noise to the grayscale image and remove it by thresholding DCT coefficients (hard at 3.2 sigma or soft at 1.5 sigma).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": outputProperties(map[string]interface{}{
					"path": pathProperty(),
					"sigma": map[string]interface{}{
						"type":        "number",
						"description": "Noise standard deviation. Default 0.1",
						"default":     0.1,
					},
					"mode": map[string]interface{}{
						"type":    "string",
						"enum":    []string{"hard", "soft"},
						"default": "hard",
					},
					"seed": map[string]interface{}{
						"type":        "integer",
						"description": "Random seed for the noise. Default 1",
					},
				}),
				"required": []string{"path"},
			},
		},

		// Analysis
		{
			Name:        "quality_compare",
			Description: "Compute MSE, SNR and PSNR of an image against a reference of the same size, optionally restricted to the nonzero pixels of a mask image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"reference_path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the reference image",
					},
					"mask_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional mask image; only nonzero pixels are scored",
					},
				},
				"required": []string{"path", "reference_path"},
			},
		},
		{
			Name:        "gradient_visualize",
			Description: "Render the image gradient as color (hue = direction, brightness = magnitude) and report the total variation.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"scheme": map[string]interface{}{
						"type":    "string",
						"enum":    []string{"forward", "backward", "centered"},
						"default": "forward",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor. Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
