// Package render draws trajectories for inspection: three 2D projections
// and per-axis derivative charts as PNG (gonum/plot), and an interactive
// 3D page as HTML (go-echarts).
//
// Rendering never changes the samples it is given. Axis limits are
// computed once per scene so every view of one run shares the same frame.
package render
