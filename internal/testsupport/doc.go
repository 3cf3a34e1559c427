// Package testsupport provides shared fixtures for tests: temp-directory
// configs and an opened library store.
package testsupport
