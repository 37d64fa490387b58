// Package qdrant is a thin REST client for the Qdrant vector store,
// covering the collection and point operations the indexing flow needs.
package qdrant
