// Package search implements the three retrieval strategies over stored
// chunks: semantic (vector similarity), text (keyword relevance), and hybrid
// (both run concurrently, fused by score with per-sub-search fallback).
package search
