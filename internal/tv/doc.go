// Package tv restores sample grids by minimizing total-variation regularized
// energies with the first-order primal-dual scheme of Chambolle and Pock.
//
// Two variants are provided:
//   - Diffuse solves the ROF denoising problem
//     min_u TV(u) + (lambda/2)|u-g|^2
//   - Inpaint solves the masked problem where u must equal g on observed
//     cells (mask != 0) and evolves freely elsewhere.
//
// # Algorithm
//
// Both variants share one iteration, run for a fixed number of steps:
//
//  1. Dual ascent: p += sigma * grad(ubar), forward differences
//  2. Dual projection: p onto the unit Euclidean ball, per cell
//  3. Primal descent: u = u_prev + tau * div(p), backward differences
//  4. Fidelity: the L2 prox (Diffuse) or exact replacement on the mask
//     (Inpaint), then a [0,1] clamp when Config.ClampToUnitInterval is set.
//     DefaultInpaintingConfig sets it; DefaultDiffusionConfig does not.
//  5. Extrapolation: ubar = 2u - u_prev; u_prev = u
//
// The step sizes are tau = sigma = 1/sqrt(8). 8 bounds the squared norm of
// the 2-D forward-difference gradient, which makes tau*sigma*L^2 <= 1.
//
// There is no convergence test. The iteration count is the only stopping
// criterion; a cancelled context aborts between iterations.
//
// # Concurrency
//
// A solver call is single-threaded and owns its state. Independent calls may
// run concurrently.
//
// # References
//
// Chambolle, A., Pock, T. (2011). A First-Order Primal-Dual Algorithm for
// Convex Problems with Applications to Imaging. Journal of Mathematical
// Imaging and Vision, 40(1), 120-145.
package tv
