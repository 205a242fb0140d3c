// Package main evaluates trained square root networks written by train_squareroot.
package main
