package devserver

// ClientScript keeps the preview page in sync. It replaces the body with
// every document message, re-appending itself, and reconnects with backoff.
const ClientScript = `<script data-kinetic-client>
(function() {
    'use strict';

    var delay = 500;
    var maxDelay = 10000;
    var self = document.currentScript;

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var ws = new WebSocket(protocol + '//' + location.host + '/ws');

        ws.onopen = function() {
            delay = 500;
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }
            if (msg.type === 'document') {
                document.body.innerHTML = msg.html;
                document.body.appendChild(self);
            } else if (msg.type === 'error') {
                console.error('[kinetic]', msg.error);
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                delay = Math.min(delay * 2, maxDelay);
                connect();
            }, delay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    window.kinetic = {
        act: function(name) {
            return fetch('/actions/' + encodeURIComponent(name), {method: 'POST'});
        }
    };

    connect();
})();
</script>`
