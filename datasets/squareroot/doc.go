// Package squareroot provides a synthetic dataset for learning to compute square roots.
// Inputs and outputs are scaled into [0, 1] so a small float network can fit them.
package squareroot
