package nodegate

// dispatch implements the request path of spec.md §4.C's dispatch
// pipeline, executing the check table in order and stopping at the first
// terminal action.
func (c *Conn) dispatch(req *Request) {
	if c.handledLastRequest {
		req.Payload.Release()
		return
	}

	seq := c.reqSeq
	req.seq = seq
	c.reqSeq++
	c.streamsServed++

	// mirrors the teacher's conn.usedStreams reachLimit check
	// (web_http1_server.go): once the per-connection stream cap is hit,
	// this request's response is the last one this connection will send.
	atStreamCap := c.cfg.MaxStreamsPerConn > 0 && c.streamsServed >= c.cfg.MaxStreamsPerConn

	if !req.KeepAlive || atStreamCap {
		c.handledLastRequest = true
		c.lastSeq = seq
	}

	if DebugLevel() > 0 {
		c.logger.Debugf("dispatch seq=%d method=%s uri=%s keepAlive=%t", seq, req.Method, req.URI, req.KeepAlive)
	}

	invoked := false
	defer func() {
		if !invoked {
			req.Payload.Release()
		}
	}()

	if req.DecodeFailed {
		c.logger.Debugf("seq=%d framing decode failure: %v", seq, req.DecodeCause)
		c.respond(seq, req, NewErrorResponse(StatusBadRequest))
		return
	}

	if req.Method == methodConnect {
		c.logger.Debugf("seq=%d rejected: %v", seq, &MethodNotAllowedError{Method: req.Method})
		c.respond(seq, req, NewErrorResponse(StatusMethodNotAllowed))
		return
	}

	path := stripQuery(req.URI)
	hostname := hostnameOf(req.Host)

	vh := c.registry.FindVirtualHost(hostname)
	if vh == nil {
		c.logger.Debugf("seq=%d %v", seq, &NotFoundError{Path: path})
		c.respond(seq, req, NewErrorResponse(StatusNotFound))
		return
	}

	svc := vh.FindService(path)
	if !svc.Present {
		c.logger.Debugf("seq=%d %v", seq, &NotFoundError{Path: path})
		c.respond(seq, req, NewErrorResponse(StatusNotFound))
		return
	}

	promise := NewPromise()
	result := svc.Codec.DecodeRequest(c, c.sessionProtocol, hostname, path, svc.MappedPath, req.Payload, req, promise)

	switch result.Kind {
	case DecodeFailure:
		promise.TryFail(&DecoderFailure{Cause: result.Cause})
		if result.ErrorResponse != nil {
			c.respond(seq, req, result.ErrorResponse)
		} else {
			c.respond(seq, req, NewErrorResponse(StatusBadRequest))
		}

	case DecodeNotFound:
		promise.TryFail(&ServiceNotFoundError{Path: path})
		c.respond(seq, req, NewErrorResponse(StatusNotFound))

	case DecodeSuccess:
		invoked = true
		c.startInvocation(seq, req, result.Context, svc.Codec, svc.Handler, promise)
	}
}

const methodConnect = "CONNECT"
