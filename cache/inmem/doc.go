// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

/*
Package inmem provides an in-memory cache implementation, a map guarded by a
mutex. Expired entries are dropped lazily on read and periodically by Sweep.
*/
package inmem
