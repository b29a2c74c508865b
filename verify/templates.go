package verify

// Prompt template ids.
const (
	TplPasswordVerify = "pwd_verify_tpl"
	TplSMSVerify      = "sms_verification_verify_tpl"
	TplSMSActivate    = "sms_verification_activate_tpl"
	TplSMSDeactivate  = "sms_verification_deactivate_tpl"
	TplSMSActivated   = "sms_verification_activated_tpl"
	TplSMSBlocked     = "sms_blocked_tpl"
	TplTOTPVerify     = "gau_verify_tpl"
	TplTOTPActivate   = "gau_activate_tpl"
	TplTOTPDeactivate = "gau_deactivate_tpl"
	TplTOTPActivated  = "gau_activated_tpl"
)

var defaultTemplates = map[string]string{
	TplPasswordVerify: `<form action="{{form_action}}" method="post" class="tfa-confirm tfa-confirm-pwd">
<div class="tfa-popup-title">Enter your Password</div>
<div class="tfa-popup-text">{{{intro}}}</div>
<div class="tfa-code-input-row"><label>Password</label><input type="password" name="password" /></div>
<input type="hidden" name="action_id" value="{{action_id}}" />
<div class="form-row form-buttons"><button type="submit" class="button">Confirm</button></div>
</form>`,
	TplSMSVerify: `<form action="{{form_action}}" method="post" class="tfa-confirm tfa-confirm-sms" data-timeout="{{timeout}}">
<div class="tfa-popup-title">Enter your SMS code</div>
<div class="tfa-popup-text">{{{intro}}}</div>
<div class="tfa-code-input-row"><label>SMS code</label><input type="text" name="code" class="tfa-code-input" required /></div>
<input type="hidden" name="action_id" value="{{action_id}}" />
<div class="tfa-popup-footer"><button type="submit" class="button">Verify</button></div>
</form>`,
	TplSMSActivate: `<form method="post" action="{{{form_action}}}" class="tfa-confirm-sms tfa-json-form" data-timeout="{{timeout}}">
<div class="tfa-popup-title">Verify your phone number</div>
<div class="tfa-code-input-row text-center"><label>Your Mobile</label><input type="tel" name="tel" value="{{phone_number}}" required /></div>
<div class="tfa-code-input-row text-center"><label>SMS Code</label><input type="text" name="code" class="tfa-code-input" required /></div>
<div class="tfa-popup-footer"><button type="submit" class="button">Verify</button></div>
</form>`,
	TplSMSDeactivate: `<form method="post" action="{{form_action}}" class="tfa-form">
<div class="tfa-popup-title">Disable 2FA with SMS</div>
<div class="form-row">Are you sure you want to disable 2-factor authentication with SMS?</div>
<div class="tfa-popup-footer"><button type="button" class="tfa-popup-close">Cancel</button><button type="submit" class="button">Disable</button></div>
</form>`,
	TplSMSActivated: `<div class="form-row">2FA with SMS had been activated</div>
<div class="tfa-popup-footer"><button type="button" onclick="location.reload()">Ok</button></div>`,
	TplSMSBlocked: `SMS sending is disabled for {{block_time_left}}`,
	TplTOTPVerify: `<form action="{{form_action}}" method="post" class="tfa-confirm tfa-confirm-gau">
<div class="tfa-popup-title">Enter your Authenticator Code</div>
<div class="tfa-popup-text">{{{intro}}}</div>
<div class="tfa-code-input-row text-center"><label>Authenticator Code</label><input type="text" name="code" required pattern="[0-9]{6}" class="tfa-code-input tfa-focus" /></div>
<input type="hidden" name="action_id" value="{{action_id}}" />
<div class="form-row form-buttons"><button type="submit" class="button">Verify</button></div>
</form>`,
	TplTOTPActivate: `<form method="post" action="{{{form_action}}}" class="tfa-enable-gau tfa-json-form">
<div class="tfa-popup-title">Enable Authenticator</div>
<div class="tfa-popup-caption">1. Scan the QR code with the Authenticator App:</div>
<div class="form-row"><a href="{{{qr_url}}}" class="tfa-gau-qr js-qrcode" data-qr="{{{qr_url}}}"></a></div>
<div class="form-row text-center">or add this key manually: <input class="tfa-gau-manual text-center" value="{{secret}}" readonly /></div>
<div class="tfa-popup-caption">2. Enter the 6-digits code from Authenticator</div>
<div class="tfa-code-input-row text-center"><input type="text" name="code" class="tfa-code-input tfa-focus" required pattern="[0-9]{6}"></div>
<div class="form-row form-buttons"><button type="submit" class="button">Confirm</button></div>
</form>`,
	TplTOTPDeactivate: `<form method="post" action="{{form_action}}" class="tfa-json-form tfa-json-form-reload-on-success">
<div class="tfa-popup-title">Disable 2FA with Google Authenticator</div>
<div class="form-row">Are you sure you want to disable 2-factor authentication with Google Authenticator?</div>
<div class="form-row form-buttons"><button type="submit" class="button">Disable</button></div>
</form>`,
	TplTOTPActivated: `<div class="form-row">2FA with Authenticator had been activated</div>
<div class="tfa-popup-footer"><button type="button" onclick="location.reload()">Ok</button></div>`,
}
