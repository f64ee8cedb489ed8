// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// GeometryVertexShader transforms scene geometry into world space.
//
//go:embed geometry.vert
var GeometryVertexShader string

// GeometryFragmentShader writes position, normal, albedo and PBR
// parameters into the four G-buffer targets.
//
//go:embed geometry.frag
var GeometryFragmentShader string

// LightingVertexShader draws the full-screen quad.
//
//go:embed lighting.vert
var LightingVertexShader string

// LightingFragmentShader shades G-buffer samples with a key light and
// image-based lighting from the environment map.
//
//go:embed lighting.frag
var LightingFragmentShader string

// SkyboxVertexShader projects the environment cube at maximum depth.
//
//go:embed skybox.vert
var SkyboxVertexShader string

// SkyboxFragmentShader samples the equirectangular environment map.
//
//go:embed skybox.frag
var SkyboxFragmentShader string
